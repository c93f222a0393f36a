package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns an ID when the database has no uuid default (sqlite)
func (b *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// UserRole represents the role of a user in the organization
type UserRole string

const (
	RoleAdmin              UserRole = "ADMIN"
	RoleGeneralManager     UserRole = "GENERAL_MANAGER"
	RoleProcurementManager UserRole = "PROCUREMENT_MANAGER"
	RoleQuantitySurveyor   UserRole = "QUANTITY_SURVEYOR"
	RoleSupervisor         UserRole = "SUPERVISOR"
	RoleEngineer           UserRole = "ENGINEER"
)

// IsValid checks if the UserRole is a valid enum value
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleGeneralManager, RoleProcurementManager, RoleQuantitySurveyor, RoleSupervisor, RoleEngineer:
		return true
	}
	return false
}

// User represents a system user with an approval limit for purchase orders
type User struct {
	BaseModel
	Name          string   `gorm:"type:varchar(200);not null"`
	Email         string   `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash  string   `gorm:"type:varchar(255);not null;column:password_hash"`
	Role          UserRole `gorm:"type:varchar(50);not null;index"`
	ApprovalLimit float64  `gorm:"type:decimal(15,2);not null;default:0;column:approval_limit"`
	IsActive      bool     `gorm:"not null;default:true;column:is_active"`
}

// Supplier represents a vendor that can quote and fulfil purchase orders
type Supplier struct {
	BaseModel
	Name          string  `gorm:"type:varchar(200);not null;index"`
	ContactPerson string  `gorm:"type:varchar(200);column:contact_person"`
	Email         string  `gorm:"type:varchar(255)"`
	Phone         string  `gorm:"type:varchar(50)"`
	Rating        float64 `gorm:"type:decimal(3,1);not null;default:5.0"`
}

// Item represents a catalog item that can be requested and ordered
type Item struct {
	BaseModel
	SKU       string  `gorm:"type:varchar(50);uniqueIndex;column:sku"`
	Name      string  `gorm:"type:varchar(200);not null;index"`
	Unit      string  `gorm:"type:varchar(50)"`
	BasePrice float64 `gorm:"type:decimal(15,2);not null;default:0;column:base_price"`
	Category  string  `gorm:"type:varchar(100)"`
}

// ProjectStatus represents the status of a project
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusOnHold    ProjectStatus = "ON_HOLD"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
)

// Project represents a construction project that procurement runs against.
// Budget and Spent are informational; no lifecycle operation gates on them.
type Project struct {
	BaseModel
	Code      string        `gorm:"type:varchar(50);uniqueIndex"`
	Name      string        `gorm:"type:varchar(200);not null;index"`
	OwnerName string        `gorm:"type:varchar(200);column:owner_name"`
	Budget    float64       `gorm:"type:decimal(15,2);not null;default:0"`
	Spent     float64       `gorm:"type:decimal(15,2);not null;default:0"`
	Status    ProjectStatus `gorm:"type:varchar(50);not null;default:'ACTIVE';index"`
	BOQItems  []ProjectBOQ  `gorm:"foreignKey:ProjectID"`
}

// ProjectBOQ represents a bill-of-quantities line for a project
type ProjectBOQ struct {
	BaseModel
	ProjectID        uuid.UUID `gorm:"type:uuid;not null;index;column:project_id"`
	ItemID           uuid.UUID `gorm:"type:uuid;not null;column:item_id"`
	Item             *Item     `gorm:"foreignKey:ItemID"`
	TotalQuantity    float64   `gorm:"type:decimal(12,2);not null;default:0;column:total_quantity"`
	ReceivedQuantity float64   `gorm:"type:decimal(12,2);not null;default:0;column:received_quantity"`
}

// TableName overrides the default pluralization
func (ProjectBOQ) TableName() string {
	return "project_boq"
}

// RequestStatus represents the status of a material request
type RequestStatus string

const (
	RequestStatusDraft             RequestStatus = "DRAFT"
	RequestStatusPendingTechnical  RequestStatus = "PENDING_TECHNICAL"
	RequestStatusApprovedTechnical RequestStatus = "APPROVED_TECHNICAL"
	RequestStatusInProcurement     RequestStatus = "IN_PROCUREMENT"
	RequestStatusCompleted         RequestStatus = "COMPLETED"
	RequestStatusRejected          RequestStatus = "REJECTED"
)

// IsValid checks if the RequestStatus is a valid enum value
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusDraft, RequestStatusPendingTechnical, RequestStatusApprovedTechnical,
		RequestStatusInProcurement, RequestStatusCompleted, RequestStatusRejected:
		return true
	}
	return false
}

// MaterialRequest represents a site request for materials against a project.
// Lines do not change after an RFQ has been opened against the request; only
// the status field moves from that point on.
type MaterialRequest struct {
	BaseModel
	ProjectID   uuid.UUID     `gorm:"type:uuid;not null;index;column:project_id"`
	Project     *Project      `gorm:"foreignKey:ProjectID"`
	RequesterID uuid.UUID     `gorm:"type:uuid;not null;column:requester_id"`
	Requester   *User         `gorm:"foreignKey:RequesterID"`
	Status      RequestStatus `gorm:"type:varchar(50);not null;default:'PENDING_TECHNICAL';index"`
	Notes       string        `gorm:"type:text"`
	Lines       []RequestLine `gorm:"foreignKey:MaterialRequestID;constraint:OnDelete:CASCADE"`
}

// RequestLine represents one requested item and quantity
type RequestLine struct {
	BaseModel
	MaterialRequestID uuid.UUID `gorm:"type:uuid;not null;index;column:material_request_id"`
	ItemID            uuid.UUID `gorm:"type:uuid;not null;column:item_id"`
	Item              *Item     `gorm:"foreignKey:ItemID"`
	Quantity          float64   `gorm:"type:decimal(12,2);not null"`
}

// RFQStatus represents the status of a request for quotation
type RFQStatus string

const (
	RFQStatusOpen   RFQStatus = "OPEN"
	RFQStatusClosed RFQStatus = "CLOSED"
)

// RFQ represents a request for quotation issued against one material request
type RFQ struct {
	BaseModel
	MaterialRequestID uuid.UUID        `gorm:"type:uuid;not null;index;column:material_request_id"`
	MaterialRequest   *MaterialRequest `gorm:"foreignKey:MaterialRequestID"`
	CreatedByID       uuid.UUID        `gorm:"type:uuid;not null;column:created_by_id"`
	Status            RFQStatus        `gorm:"type:varchar(20);not null;default:'OPEN';index"`
	Deadline          time.Time        `gorm:"not null"`
	Quotations        []Quotation      `gorm:"foreignKey:RFQID"`
}

// TableName keeps the acronym table name
func (RFQ) TableName() string {
	return "rfqs"
}

// Quotation represents a supplier quote. RFQID is optional so a quote can be
// recorded for direct sourcing outside a tender round. At most one quotation
// per RFQ is ever selected.
type Quotation struct {
	BaseModel
	RFQID       *uuid.UUID `gorm:"type:uuid;index;column:rfq_id"`
	RFQ         *RFQ       `gorm:"foreignKey:RFQID"`
	SupplierID  uuid.UUID  `gorm:"type:uuid;not null;index;column:supplier_id"`
	Supplier    *Supplier  `gorm:"foreignKey:SupplierID"`
	TotalAmount float64    `gorm:"type:decimal(15,2);not null;column:total_amount"`
	Currency    string     `gorm:"type:varchar(3);not null;default:'SAR'"`
	ValidUntil  *time.Time `gorm:"column:valid_until"`
	Selected    bool       `gorm:"not null;default:false;column:is_selected"`
}

// POStatus represents the status of a purchase order
type POStatus string

const (
	POStatusPendingApproval   POStatus = "PENDING_APPROVAL"
	POStatusApproved          POStatus = "APPROVED"
	POStatusSentToSupplier    POStatus = "SENT_TO_SUPPLIER"
	POStatusPartiallyReceived POStatus = "PARTIALLY_RECEIVED"
	POStatusReceived          POStatus = "RECEIVED"
	POStatusCancelled         POStatus = "CANCELLED"
)

// IsValid checks if the POStatus is a valid enum value
func (s POStatus) IsValid() bool {
	switch s {
	case POStatusPendingApproval, POStatusApproved, POStatusSentToSupplier,
		POStatusPartiallyReceived, POStatusReceived, POStatusCancelled:
		return true
	}
	return false
}

// ReceivableStatus reports whether the order can accept goods receipts
func (s POStatus) ReceivableStatus() bool {
	return s == POStatusApproved || s == POStatusSentToSupplier || s == POStatusPartiallyReceived
}

// PurchaseOrder represents a committed buy against a supplier.
// MaterialRequestID and QuotationID trace the order back to its source when
// it was synthesized from a winning quotation.
type PurchaseOrder struct {
	BaseModel
	ProjectID         uuid.UUID  `gorm:"type:uuid;not null;index;column:project_id"`
	Project           *Project   `gorm:"foreignKey:ProjectID"`
	SupplierID        uuid.UUID  `gorm:"type:uuid;not null;index;column:supplier_id"`
	Supplier          *Supplier  `gorm:"foreignKey:SupplierID"`
	MaterialRequestID *uuid.UUID `gorm:"type:uuid;column:material_request_id"`
	QuotationID       *uuid.UUID `gorm:"type:uuid;column:quotation_id"`
	Status            POStatus   `gorm:"type:varchar(50);not null;default:'PENDING_APPROVAL';index"`
	TotalAmount       float64    `gorm:"type:decimal(15,2);not null;default:0;column:total_amount"`
	ApprovedByID      *uuid.UUID `gorm:"type:uuid;column:approved_by_id"`
	ApprovedAt        *time.Time `gorm:"column:approved_at"`
	Lines             []POLine   `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
	Receipts          []Receipt  `gorm:"foreignKey:PurchaseOrderID"`
}

// TableName overrides the default pluralization
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// POLine represents one ordered item. At all times
// 0 <= ReceivedQuantity <= Quantity.
type POLine struct {
	BaseModel
	PurchaseOrderID  uuid.UUID `gorm:"type:uuid;not null;index;column:purchase_order_id"`
	ItemID           uuid.UUID `gorm:"type:uuid;not null;column:item_id"`
	Item             *Item     `gorm:"foreignKey:ItemID"`
	Quantity         float64   `gorm:"type:decimal(12,2);not null"`
	Price            float64   `gorm:"type:decimal(15,2);not null"`
	ReceivedQuantity float64   `gorm:"type:decimal(12,2);not null;default:0;column:received_quantity"`
}

// TableName overrides the default pluralization
func (POLine) TableName() string {
	return "po_lines"
}

// Remaining returns the quantity still outstanding on the line
func (l *POLine) Remaining() float64 {
	return l.Quantity - l.ReceivedQuantity
}

// Receipt represents a goods receipt note against a purchase order.
// Receipts are append-only and never edited after creation.
type Receipt struct {
	BaseModel
	PurchaseOrderID uuid.UUID     `gorm:"type:uuid;not null;index;column:purchase_order_id"`
	ReceivedByID    uuid.UUID     `gorm:"type:uuid;not null;column:received_by_id"`
	ReceivedBy      *User         `gorm:"foreignKey:ReceivedByID"`
	ReceivedAt      time.Time     `gorm:"not null;column:received_at"`
	Lines           []ReceiptLine `gorm:"foreignKey:ReceiptID;constraint:OnDelete:CASCADE"`
}

// ReceiptLine represents one received item and quantity in a receipt event
type ReceiptLine struct {
	BaseModel
	ReceiptID uuid.UUID `gorm:"type:uuid;not null;index;column:receipt_id"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;column:item_id"`
	Item      *Item     `gorm:"foreignKey:ItemID"`
	Quantity  float64   `gorm:"type:decimal(12,2);not null"`
}

// InvoiceStatus represents the three-way match verdict of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPendingMatch InvoiceStatus = "PENDING_MATCH"
	InvoiceStatusMatched      InvoiceStatus = "MATCHED"
	InvoiceStatusMismatch     InvoiceStatus = "MISMATCH"
)

// Invoice represents a supplier invoice posted against a purchase order
type Invoice struct {
	BaseModel
	PurchaseOrderID       uuid.UUID     `gorm:"type:uuid;not null;index;column:purchase_order_id"`
	SupplierInvoiceNumber string        `gorm:"type:varchar(100);column:supplier_invoice_number"`
	TotalAmount           float64       `gorm:"type:decimal(15,2);not null;column:total_amount"`
	Status                InvoiceStatus `gorm:"type:varchar(50);not null;default:'PENDING_MATCH';index"`
	MatchDetails          string        `gorm:"type:text;column:match_details"`
}

// SystemSettings holds the single row of global tenant settings
type SystemSettings struct {
	ID          string `gorm:"type:varchar(10);primaryKey"`
	CompanyName string `gorm:"type:varchar(200);not null;column:company_name"`
	TaxNumber   string `gorm:"type:varchar(50);column:tax_number"`
	Currency    string `gorm:"type:varchar(3);not null;default:'SAR'"`
}

// TableName keeps the singular settings table name
func (SystemSettings) TableName() string {
	return "system_settings"
}

// AuditCategory classifies audit log entries
type AuditCategory string

const (
	AuditCategoryAuth        AuditCategory = "AUTH"
	AuditCategoryProcurement AuditCategory = "PROCUREMENT"
	AuditCategoryProjects    AuditCategory = "PROJECTS"
	AuditCategorySystem      AuditCategory = "SYSTEM"
)

// AuditLog represents an audit trail entry written on lifecycle transitions
type AuditLog struct {
	ID        uuid.UUID     `gorm:"type:uuid;primary_key"`
	UserID    *uuid.UUID    `gorm:"type:uuid;column:user_id"`
	UserName  string        `gorm:"type:varchar(200);column:user_name"`
	Action    string        `gorm:"type:varchar(100);not null"`
	Details   string        `gorm:"type:text"`
	Category  AuditCategory `gorm:"type:varchar(50);not null;index"`
	CreatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

// BeforeCreate assigns an ID when the database has no uuid default (sqlite)
func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
