package derive

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
)

func loadedContext() Context {
	return Context{HasDataLoaded: true, IdentityMatch: true}
}

func TestContacts_GatedUntilLoaded(t *testing.T) {
	records := []domain.RawContactRecord{{ID: "r1"}}

	assert.Empty(t, Contacts(records, Context{HasDataLoaded: false, IdentityMatch: true}, zap.NewNop()))
	assert.Empty(t, Contacts(records, Context{HasDataLoaded: true, IdentityMatch: false}, zap.NewNop()))
	assert.Len(t, Contacts(records, loadedContext(), zap.NewNop()), 1)
}

func TestContacts_EmptyInputYieldsEmptySlice(t *testing.T) {
	got := Contacts(nil, loadedContext(), zap.NewNop())
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestContact_IDPrecedence(t *testing.T) {
	record := domain.RawContactRecord{
		ID:       "record-id",
		User:     domain.RawUser{ID: "user-id"},
		Customer: domain.RawCustomer{ID: "customer-id"},
	}

	got := Contacts([]domain.RawContactRecord{record}, loadedContext(), zap.NewNop())
	require.Len(t, got, 1)
	assert.Equal(t, "user-id", got[0].ID)

	record.User.ID = ""
	got = Contacts([]domain.RawContactRecord{record}, loadedContext(), zap.NewNop())
	assert.Equal(t, "customer-id", got[0].ID)

	record.Customer.ID = ""
	got = Contacts([]domain.RawContactRecord{record}, loadedContext(), zap.NewNop())
	assert.Equal(t, "record-id", got[0].ID)
}

func TestContact_PhoneAndEmailPreferLeadFields(t *testing.T) {
	record := domain.RawContactRecord{
		User: domain.RawUser{
			ID:        "u1",
			Phone:     "+49 30 1111",
			LeadPhone: "+49 30 2222",
			Email:     "account@example.com",
			LeadEmail: "lead@example.com",
		},
	}

	got := Contacts([]domain.RawContactRecord{record}, loadedContext(), zap.NewNop())
	require.Len(t, got, 1)
	assert.Equal(t, "+49 30 2222", got[0].Phone)
	assert.Equal(t, "lead@example.com", got[0].Email)

	record.User.LeadPhone = ""
	record.User.LeadEmail = ""
	got = Contacts([]domain.RawContactRecord{record}, loadedContext(), zap.NewNop())
	assert.Equal(t, "+49 30 1111", got[0].Phone)
	assert.Equal(t, "account@example.com", got[0].Email)
}

func TestPipelineStatus(t *testing.T) {
	assert.Equal(t, "Interessent", PipelineStatus(&domain.RawContactRecord{
		Customer: domain.RawCustomer{Status: "Interessent"},
	}))
	assert.Equal(t, "No Status", PipelineStatus(&domain.RawContactRecord{}))
}

func TestLeadpoolStatus(t *testing.T) {
	assert.Equal(t, "Terminiert", LeadpoolStatus(&domain.RawContactRecord{
		User: domain.RawUser{IsApproved: true},
	}))
	assert.Equal(t, "Nicht erreicht", LeadpoolStatus(&domain.RawContactRecord{}))
}

func TestContacts_StatusResolverSelection(t *testing.T) {
	record := domain.RawContactRecord{
		User:     domain.RawUser{ID: "u1", IsApproved: true},
		Customer: domain.RawCustomer{Status: "Kunde"},
	}

	dctx := loadedContext()
	got := Contacts([]domain.RawContactRecord{record}, dctx, zap.NewNop())
	require.Len(t, got, 1)
	assert.Equal(t, "Kunde", got[0].Status)

	dctx.Status = LeadpoolStatus
	got = Contacts([]domain.RawContactRecord{record}, dctx, zap.NewNop())
	assert.Equal(t, "Terminiert", got[0].Status)
}

func TestContact_CreatedAtPrefersAdditionalData(t *testing.T) {
	record := domain.RawContactRecord{
		User: domain.RawUser{ID: "u1", CreatedAt: "2023-01-01T00:00:00Z"},
		Customer: domain.RawCustomer{
			CreatedAt:      "2023-06-15T12:00:00Z",
			AdditionalData: json.RawMessage(`{"created_time":"2024-12-24T09:30:00Z"}`),
		},
	}

	got := Contacts([]domain.RawContactRecord{record}, loadedContext(), zap.NewNop())
	require.Len(t, got, 1)
	assert.Equal(t, "24.12.2024 - 09:30 Uhr", got[0].CreatedAt)
}

func TestContact_CreatedAtFallsBackToCustomerThenUser(t *testing.T) {
	record := domain.RawContactRecord{
		User:     domain.RawUser{ID: "u1", CreatedAt: "2023-01-01T08:00:00Z"},
		Customer: domain.RawCustomer{CreatedAt: "2023-06-15T12:00:00Z"},
	}

	got := Contacts([]domain.RawContactRecord{record}, loadedContext(), zap.NewNop())
	require.Len(t, got, 1)
	assert.Equal(t, "15.06.2023 - 12:00 Uhr", got[0].CreatedAt)

	record.Customer.CreatedAt = ""
	got = Contacts([]domain.RawContactRecord{record}, loadedContext(), zap.NewNop())
	assert.Equal(t, "01.01.2023 - 08:00 Uhr", got[0].CreatedAt)
}

func TestFormatDisplayTime(t *testing.T) {
	assert.Equal(t, "24.12.2025 - 09:30 Uhr", FormatDisplayTime("2025-12-24T09:30:00Z"))
	assert.Equal(t, "05.03.2024 - 14:45 Uhr", FormatDisplayTime("2024-03-05 14:45:00"))
	assert.Equal(t, "01.02.2024 - 00:00 Uhr", FormatDisplayTime("2024-02-01"))

	// Unparseable input passes through unchanged.
	assert.Equal(t, "gestern", FormatDisplayTime("gestern"))
}

func TestContact_PipelineFallbacks(t *testing.T) {
	record := domain.RawContactRecord{
		User: domain.RawUser{ID: "u1"},
	}

	dctx := loadedContext()
	dctx.PipelineName = "Hauptpipeline"
	dctx.PipelineSource = "facebook"

	got := Contacts([]domain.RawContactRecord{record}, dctx, zap.NewNop())
	require.Len(t, got, 1)
	assert.Equal(t, "Hauptpipeline", got[0].Pipeline)
	assert.Equal(t, "facebook", got[0].LeadSource)

	record.Pipeline = domain.RawPipelineRef{Name: "Leadpool Q3", Source: "meta"}
	got = Contacts([]domain.RawContactRecord{record}, dctx, zap.NewNop())
	assert.Equal(t, "Leadpool Q3", got[0].Pipeline)
	assert.Equal(t, "meta", got[0].LeadSource)
}

func TestContact_CorruptAdditionalDataDoesNotFailRow(t *testing.T) {
	record := domain.RawContactRecord{
		User: domain.RawUser{ID: "u1", CreatedAt: "2024-01-10T10:00:00Z"},
		Customer: domain.RawCustomer{
			AdditionalData: json.RawMessage(`{broken`),
		},
	}

	got := Contacts([]domain.RawContactRecord{record}, loadedContext(), zap.NewNop())
	require.Len(t, got, 1)
	assert.Equal(t, "10.01.2024 - 10:00 Uhr", got[0].CreatedAt)
}
