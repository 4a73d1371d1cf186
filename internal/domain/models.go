// Package domain defines the persistence models for workflows, tags and
// executions. These types are mapped with GORM and form the core data layer
// of the workflow service.
package domain

import "time"

// Execution statuses.
const (
	ExecutionWaiting = "waiting"
	ExecutionRunning = "running"
	ExecutionSuccess = "success"
	ExecutionError   = "error"
)

// Workflow is an automation owned by a user. Workflow names are unique
// across the installation; the uniqueness is enforced by the database and
// surfaces as a unique-constraint query failure on insert/rename.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - OwnerID: identifier of the creating user; indexed for listing.
//   - Name: unique display name (NFC-normalized before storage).
//   - Active: whether triggers are enabled.
//   - FormPath: optional public form path (/form/<path>); unique when set.
//   - WebhookURL: optional third-party endpoint used by the webhook test.
//   - Nodes: opaque workflow definition (JSON text).
type Workflow struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	OwnerID    string    `json:"owner_id"    gorm:"type:varchar(64);not null;index:idx_owner_workflows"`
	Name       string    `json:"name"        gorm:"type:varchar(128);not null;uniqueIndex:ux_workflows_name"`
	Active     bool      `json:"active"      gorm:"not null;default:false"`
	FormPath   *string   `json:"form_path,omitempty"   gorm:"type:varchar(128);uniqueIndex:ux_workflows_form_path"`
	WebhookURL string    `json:"webhook_url,omitempty" gorm:"type:varchar(2048)"`
	Nodes      string    `json:"nodes"       gorm:"type:text;not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for Workflow.
func (Workflow) TableName() string { return "workflows" }

// Tag is a label that can be attached to workflows. Tag names are unique.
type Tag struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"       gorm:"type:varchar(64);not null;uniqueIndex:ux_tags_name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Tag.
func (Tag) TableName() string { return "tags" }

// Execution is a single run of a workflow. Executions paused on a form
// (status "waiting") accept submissions through /form-waiting/<id>.
type Execution struct {
	ID         string     `json:"id"          gorm:"type:char(36);primaryKey"`
	WorkflowID string     `json:"workflow_id" gorm:"type:char(36);not null;index"`
	Status     string     `json:"status"      gorm:"type:varchar(16);not null;check:status IN ('waiting','running','success','error')"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Workflow is the parent workflow. Executions are cascade-deleted with it.
	Workflow Workflow `json:"-" gorm:"foreignKey:WorkflowID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Execution.
func (Execution) TableName() string { return "executions" }

// Waiting reports whether the execution still accepts form submissions.
func (e Execution) Waiting() bool { return e.Status == ExecutionWaiting }
