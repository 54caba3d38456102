package domain

import "encoding/json"

// PipelineType partitions pipelines into disjoint display contexts.
// Agency pipelines are never listed alongside normal pipelines.
type PipelineType string

const (
	PipelineTypeNormal   PipelineType = "normal"
	PipelineTypeLeadpool PipelineType = "leadpool"
	PipelineTypeMeta     PipelineType = "meta"
	PipelineTypeAgency   PipelineType = "agency"
	PipelineTypeProfile  PipelineType = "profile"
)

// Pipeline is a consultant-owned lead pipeline as returned by the remote API.
type Pipeline struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Name      string       `json:"name"`
	Source    string       `json:"source"`
	Type      PipelineType `json:"type"`
	CompanyID string       `json:"company_id,omitempty"`
	Stages    []Stage      `json:"stages,omitempty"`
	CreatedAt string       `json:"created_at,omitempty"`
	UpdatedAt string       `json:"updated_at,omitempty"`
	IsDeleted bool         `json:"is_deleted,omitempty"`
}

// Stage belongs to exactly one pipeline. Ordering is significant only
// via Position, never via slice order.
type Stage struct {
	ID         string `json:"id"`
	PipelineID string `json:"pipeline_id,omitempty"`
	Name       string `json:"name"`
	Color      string `json:"color,omitempty"`
	Position   int    `json:"position"`
}

// RawUser carries the identity/contact fields of a raw contact record.
type RawUser struct {
	ID         string `json:"id,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	LeadPhone  string `json:"lead_phone,omitempty"`
	Email      string `json:"email,omitempty"`
	LeadEmail  string `json:"lead_email,omitempty"`
	IsApproved bool   `json:"is_approved,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// RawCustomer carries the customer-side fields of a raw contact record.
// AdditionalData is free-form and may arrive as a native object, a JSON
// string, or a multiply-escaped JSON string; the derive package decodes
// it leniently.
type RawCustomer struct {
	ID             string          `json:"id,omitempty"`
	Company        string          `json:"company,omitempty"`
	Status         string          `json:"status,omitempty"`
	Platform       string          `json:"platform,omitempty"`
	AdditionalData json.RawMessage `json:"additional_data,omitempty"`
	CreatedAt      string          `json:"created_at,omitempty"`
	UpdatedAt      string          `json:"updated_at,omitempty"`
}

// RawStageRef is the nested stage sub-object of a raw contact record.
type RawStageRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// RawPipelineRef is the nested pipeline sub-object of a raw contact record.
type RawPipelineRef struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Source string `json:"source,omitempty"`
}

// RawContactRecord is one heterogeneous record from
// GET /users/by-consultant. Any of the sub-objects may be absent.
type RawContactRecord struct {
	ID       string         `json:"id,omitempty"`
	User     RawUser        `json:"user,omitempty"`
	Customer RawCustomer    `json:"customer,omitempty"`
	Stage    RawStageRef    `json:"stage,omitempty"`
	Pipeline RawPipelineRef `json:"pipeline,omitempty"`
}

// Contact is the flat, display-ready view model derived from a
// RawContactRecord. It is never persisted.
type Contact struct {
	ID         string `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Company    string `json:"company"`
	Status     string `json:"status"`
	Platform   string `json:"platform"`
	StageID    string `json:"stage_id"`
	StageName  string `json:"stage_name"`
	Pipeline   string `json:"pipeline"`
	LeadSource string `json:"lead_source"`
	CreatedAt  string `json:"created_at"`
}

// StageCount pairs a stage with its contact count. Count fan-out tasks
// return these pairs explicitly so results are joined by key, never by
// goroutine index.
type StageCount struct {
	StageID string `json:"stage_id"`
	Count   int    `json:"count"`
}

// ImportResult is the remote API's answer to a bulk contact import.
type ImportResult struct {
	StageID       string `json:"stage_id"`
	ImportedCount int    `json:"imported_count"`
	SkippedCount  int    `json:"skipped_count,omitempty"`
}

// TransferResult reports a bulk agency transfer. The frontend navigates
// to PipelineID on success.
type TransferResult struct {
	PipelineID       string `json:"pipeline_id"`
	TargetStageID    string `json:"target_stage_id"`
	TransferredCount int    `json:"transferred_count"`
}

// Appointment is a scheduled meeting between a consultant and a lead,
// shown in the dashboard's schedule panel. Display only; slot rules are
// enforced server-side.
type Appointment struct {
	ID           string `json:"id"`
	ConsultantID string `json:"consultant_id"`
	CustomerID   string `json:"customer_id"`
	StartsAt     string `json:"starts_at"`
	EndsAt       string `json:"ends_at"`
	Location     string `json:"location,omitempty"`
	Note         string `json:"note,omitempty"`
	Status       string `json:"status,omitempty"`
}
