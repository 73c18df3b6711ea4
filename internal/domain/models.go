// Package domain defines the persistence models for leads, representatives,
// tracked entities, and contact-history entries. These types are mapped with
// GORM and form the core data layer of the sales-operations backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Lead status values. A lead starts as PENDING when imported and moves through
// the pipeline as representatives work it.
const (
	LeadStatusPending    = "PENDING"
	LeadStatusInProgress = "IN_PROGRESS"
	LeadStatusCompleted  = "COMPLETED"
	LeadStatusNoSite     = "NO_SITE"
	LeadStatusNoForm     = "NO_FORM"
	LeadStatusEtc        = "ETC"
)

// ValidLeadStatus reports whether s is one of the known lead statuses.
func ValidLeadStatus(s string) bool {
	switch s {
	case LeadStatusPending, LeadStatusInProgress, LeadStatusCompleted,
		LeadStatusNoSite, LeadStatusNoForm, LeadStatusEtc:
		return true
	}
	return false
}

// Tracked entity types. History rounds are numbered independently per
// (entity type, entity id) pair.
const (
	EntityTypeSalesTracking = "sales_tracking"
	EntityTypeRetargeting   = "retargeting"
)

// ValidEntityType reports whether t names a known tracked-entity type.
func ValidEntityType(t string) bool {
	return t == EntityTypeSalesTracking || t == EntityTypeRetargeting
}

// Representative roles.
const (
	RoleRep   = "rep"
	RoleAdmin = "admin"
)

// Lead represents a sales prospect imported from the external CSV pipeline.
// A lead is assignable while AssigneeID is null; the bulk allocator claims
// leads by setting AssigneeID and AssignedAt together, so the two fields are
// always either both null or both set.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - StoreName / Prefecture / Genre / Memo: descriptive attributes from import.
//   - Status: pipeline status (enforced by DB constraint).
//   - AssigneeID: representative currently owning the lead; null when unassigned.
//   - AssignedAt: set exactly when AssigneeID transitions from null to non-null.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (leads are never hard-deleted in normal operation).
type Lead struct {
	ID         string         `json:"id"          gorm:"type:char(36);primaryKey"`
	StoreName  string         `json:"store_name"  gorm:"type:varchar(255);not null"`
	Prefecture string         `json:"prefecture"  gorm:"type:varchar(64);index:idx_leads_pool,priority:2"`
	Genre      string         `json:"genre"       gorm:"type:varchar(64);index"`
	Memo       string         `json:"memo"        gorm:"type:text"`
	Status     string         `json:"status"      gorm:"type:varchar(16);not null;default:'PENDING';check:status IN ('PENDING','IN_PROGRESS','COMPLETED','NO_SITE','NO_FORM','ETC')"`
	AssigneeID *string        `json:"assignee_id" gorm:"type:char(36);index:idx_leads_pool,priority:1"`
	AssignedAt *time.Time     `json:"assigned_at" gorm:"index"`
	CreatedAt  time.Time      `json:"created_at"  gorm:"index"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-"           gorm:"index"`
}

// TableName returns the database table name for Lead.
func (Lead) TableName() string { return "leads" }

// Assignable reports whether the lead is currently claimable.
func (l *Lead) Assignable() bool { return l.AssigneeID == nil }

// Representative is a sales operator who receives lead assignments and owns
// tracked entities. Role is "rep" or "admin"; admins may mutate history on
// entities they do not own. Inactive representatives cannot receive new leads.
type Representative struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	Name      string         `json:"name"       gorm:"type:varchar(128);not null"`
	Role      string         `json:"role"       gorm:"type:varchar(16);not null;default:'rep';check:role IN ('rep','admin')"`
	Active    bool           `json:"active"     gorm:"not null;default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Representative.
func (Representative) TableName() string { return "representatives" }

// IsAdmin reports whether the representative has the admin role.
func (r *Representative) IsAdmin() bool { return r.Role == RoleAdmin }

// TrackedEntity is a record whose contact history is numbered in rounds:
// either a sales-tracking record or a retargeting customer. Only the owner
// (or an admin) may add or delete history entries for it.
//
// The current maximum round is not stored here; it is derived from the
// history_entries table inside the allocation transaction.
type TrackedEntity struct {
	ID          string         `json:"id"            gorm:"type:char(36);primaryKey"`
	EntityType  string         `json:"entity_type"   gorm:"type:varchar(32);not null;index;check:entity_type IN ('sales_tracking','retargeting')"`
	OwnerUserID string         `json:"owner_user_id" gorm:"type:char(36);not null;index"`
	Name        string         `json:"name"          gorm:"type:varchar(255);not null"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"             gorm:"index"`
}

// TableName returns the database table name for TrackedEntity.
func (TrackedEntity) TableName() string { return "tracked_entities" }

// HistoryEntry is the Nth contact record for a tracked entity. The unique
// index on (entity_type, entity_id, round) is the backstop for round
// allocation: a losing writer gets a constraint violation and retries with a
// freshly computed round. Entries are immutable once created; deletion is
// allowed and leaves a gap in the round sequence (no renumbering).
type HistoryEntry struct {
	ID          string     `json:"id"           gorm:"type:char(36);primaryKey"`
	EntityType  string     `json:"entity_type"  gorm:"type:varchar(32);not null;uniqueIndex:ux_history_entity_round,priority:1"`
	EntityID    string     `json:"entity_id"    gorm:"type:char(36);not null;uniqueIndex:ux_history_entity_round,priority:2"`
	Round       int        `json:"round"        gorm:"not null;uniqueIndex:ux_history_entity_round,priority:3;check:round >= 1"`
	Content     string     `json:"content"      gorm:"type:text;not null"`
	AuthorID    string     `json:"author_id"    gorm:"type:char(36);not null;index"`
	ContactDate *time.Time `json:"contact_date"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TableName returns the database table name for HistoryEntry.
func (HistoryEntry) TableName() string { return "history_entries" }
