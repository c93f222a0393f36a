package domain

import (
	"github.com/google/uuid"
)

// DTOs for API responses

type UserDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          UserRole  `json:"role"`
	ApprovalLimit float64   `json:"approvalLimit"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     string    `json:"createdAt"` // ISO 8601
	UpdatedAt     string    `json:"updatedAt"` // ISO 8601
}

type SupplierDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contactPerson,omitempty"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Rating        float64   `json:"rating"`
	CreatedAt     string    `json:"createdAt"` // ISO 8601
	UpdatedAt     string    `json:"updatedAt"` // ISO 8601
}

type ItemDTO struct {
	ID        uuid.UUID `json:"id"`
	SKU       string    `json:"sku,omitempty"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit,omitempty"`
	BasePrice float64   `json:"basePrice"`
	Category  string    `json:"category,omitempty"`
	CreatedAt string    `json:"createdAt"` // ISO 8601
	UpdatedAt string    `json:"updatedAt"` // ISO 8601
}

type ProjectDTO struct {
	ID        uuid.UUID        `json:"id"`
	Code      string           `json:"code,omitempty"`
	Name      string           `json:"name"`
	OwnerName string           `json:"ownerName,omitempty"`
	Budget    float64          `json:"budget"`
	Spent     float64          `json:"spent"`
	Status    ProjectStatus    `json:"status"`
	BOQItems  []ProjectBOQDTO  `json:"boqItems,omitempty"`
	CreatedAt string           `json:"createdAt"` // ISO 8601
	UpdatedAt string           `json:"updatedAt"` // ISO 8601
}

type ProjectBOQDTO struct {
	ID               uuid.UUID `json:"id"`
	ProjectID        uuid.UUID `json:"projectId"`
	ItemID           uuid.UUID `json:"itemId"`
	ItemName         string    `json:"itemName,omitempty"`
	Unit             string    `json:"unit,omitempty"`
	TotalQuantity    float64   `json:"totalQuantity"`
	ReceivedQuantity float64   `json:"receivedQuantity"`
}

type MaterialRequestDTO struct {
	ID            uuid.UUID        `json:"id"`
	ProjectID     uuid.UUID        `json:"projectId"`
	ProjectName   string           `json:"projectName,omitempty"`
	RequesterID   uuid.UUID        `json:"requesterId"`
	RequesterName string           `json:"requesterName,omitempty"`
	Status        RequestStatus    `json:"status"`
	Notes         string           `json:"notes,omitempty"`
	Lines         []RequestLineDTO `json:"lines"`
	CreatedAt     string           `json:"createdAt"` // ISO 8601
	UpdatedAt     string           `json:"updatedAt"` // ISO 8601
}

type RequestLineDTO struct {
	ID       uuid.UUID `json:"id"`
	ItemID   uuid.UUID `json:"itemId"`
	ItemName string    `json:"itemName,omitempty"`
	Unit     string    `json:"unit,omitempty"`
	Quantity float64   `json:"quantity"`
}

type RFQDTO struct {
	ID                uuid.UUID      `json:"id"`
	MaterialRequestID uuid.UUID      `json:"materialRequestId"`
	CreatedByID       uuid.UUID      `json:"createdById"`
	Status            RFQStatus      `json:"status"`
	Deadline          string         `json:"deadline"` // ISO 8601
	Quotations        []QuotationDTO `json:"quotations,omitempty"`
	CreatedAt         string         `json:"createdAt"` // ISO 8601
}

type QuotationDTO struct {
	ID           uuid.UUID  `json:"id"`
	RFQID        *uuid.UUID `json:"rfqId,omitempty"`
	SupplierID   uuid.UUID  `json:"supplierId"`
	SupplierName string     `json:"supplierName,omitempty"`
	TotalAmount  float64    `json:"totalAmount"`
	Currency     string     `json:"currency"`
	ValidUntil   *string    `json:"validUntil,omitempty"` // ISO 8601
	Selected     bool       `json:"isSelected"`
	CreatedAt    string     `json:"createdAt"` // ISO 8601
}

type PurchaseOrderDTO struct {
	ID                uuid.UUID    `json:"id"`
	ProjectID         uuid.UUID    `json:"projectId"`
	ProjectName       string       `json:"projectName,omitempty"`
	SupplierID        uuid.UUID    `json:"supplierId"`
	SupplierName      string       `json:"supplierName,omitempty"`
	MaterialRequestID *uuid.UUID   `json:"materialRequestId,omitempty"`
	QuotationID       *uuid.UUID   `json:"quotationId,omitempty"`
	Status            POStatus     `json:"status"`
	TotalAmount       float64      `json:"totalAmount"`
	ApprovedByID      *uuid.UUID   `json:"approvedById,omitempty"`
	ApprovedAt        *string      `json:"approvedAt,omitempty"` // ISO 8601
	Lines             []POLineDTO  `json:"lines"`
	Receipts          []ReceiptDTO `json:"receipts,omitempty"`
	CreatedAt         string       `json:"createdAt"` // ISO 8601
	UpdatedAt         string       `json:"updatedAt"` // ISO 8601
}

type POLineDTO struct {
	ID               uuid.UUID `json:"id"`
	ItemID           uuid.UUID `json:"itemId"`
	ItemName         string    `json:"itemName,omitempty"`
	Unit             string    `json:"unit,omitempty"`
	Quantity         float64   `json:"quantity"`
	Price            float64   `json:"price"`
	ReceivedQuantity float64   `json:"receivedQuantity"`
}

type ReceiptDTO struct {
	ID              uuid.UUID        `json:"id"`
	PurchaseOrderID uuid.UUID        `json:"purchaseOrderId"`
	ReceivedByID    uuid.UUID        `json:"receivedById"`
	ReceivedByName  string           `json:"receivedByName,omitempty"`
	ReceivedAt      string           `json:"receivedAt"` // ISO 8601
	Lines           []ReceiptLineDTO `json:"lines"`
}

type ReceiptLineDTO struct {
	ID       uuid.UUID `json:"id"`
	ItemID   uuid.UUID `json:"itemId"`
	ItemName string    `json:"itemName,omitempty"`
	Quantity float64   `json:"quantity"`
}

type InvoiceDTO struct {
	ID                    uuid.UUID     `json:"id"`
	PurchaseOrderID       uuid.UUID     `json:"purchaseOrderId"`
	SupplierInvoiceNumber string        `json:"supplierInvoiceNumber,omitempty"`
	TotalAmount           float64       `json:"totalAmount"`
	Status                InvoiceStatus `json:"status"`
	MatchDetails          string        `json:"matchDetails,omitempty"`
	CreatedAt             string        `json:"createdAt"` // ISO 8601
	UpdatedAt             string        `json:"updatedAt"` // ISO 8601
}

type SystemSettingsDTO struct {
	CompanyName string `json:"companyName"`
	TaxNumber   string `json:"taxNumber,omitempty"`
	Currency    string `json:"currency"`
}

type AuditLogDTO struct {
	ID        uuid.UUID     `json:"id"`
	UserID    *uuid.UUID    `json:"userId,omitempty"`
	UserName  string        `json:"userName,omitempty"`
	Action    string        `json:"action"`
	Details   string        `json:"details,omitempty"`
	Category  AuditCategory `json:"category"`
	CreatedAt string        `json:"createdAt"` // ISO 8601
}

// ErrorResponse represents an API error response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// Request structs for create/update operations

type CreateUserRequest struct {
	Name          string  `json:"name" validate:"required,max=200"`
	Email         string  `json:"email" validate:"required,email"`
	Password      string  `json:"password" validate:"required,min=8,max=100"`
	Role          string  `json:"role" validate:"required,oneof=ADMIN GENERAL_MANAGER PROCUREMENT_MANAGER QUANTITY_SURVEYOR SUPERVISOR ENGINEER"`
	ApprovalLimit float64 `json:"approvalLimit" validate:"gte=0"`
}

type UpdateUserRequest struct {
	Name          *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Role          *string  `json:"role,omitempty" validate:"omitempty,oneof=ADMIN GENERAL_MANAGER PROCUREMENT_MANAGER QUANTITY_SURVEYOR SUPERVISOR ENGINEER"`
	ApprovalLimit *float64 `json:"approvalLimit,omitempty" validate:"omitempty,gte=0"`
	IsActive      *bool    `json:"isActive,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type CreateSupplierRequest struct {
	Name          string  `json:"name" validate:"required,max=200"`
	ContactPerson string  `json:"contactPerson,omitempty" validate:"max=200"`
	Email         string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone         string  `json:"phone,omitempty" validate:"max=50"`
	Rating        float64 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=10"`
}

type UpdateSupplierRequest struct {
	Name          *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	ContactPerson *string  `json:"contactPerson,omitempty" validate:"omitempty,max=200"`
	Email         *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone         *string  `json:"phone,omitempty" validate:"omitempty,max=50"`
	Rating        *float64 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=10"`
}

type CreateItemRequest struct {
	SKU       string  `json:"sku,omitempty" validate:"max=50"`
	Name      string  `json:"name" validate:"required,max=200"`
	Unit      string  `json:"unit,omitempty" validate:"max=50"`
	BasePrice float64 `json:"basePrice" validate:"gte=0"`
	Category  string  `json:"category,omitempty" validate:"max=100"`
}

type UpdateItemRequest struct {
	Name      *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Unit      *string  `json:"unit,omitempty" validate:"omitempty,max=50"`
	BasePrice *float64 `json:"basePrice,omitempty" validate:"omitempty,gte=0"`
	Category  *string  `json:"category,omitempty" validate:"omitempty,max=100"`
}

type CreateProjectRequest struct {
	Code      string                 `json:"code,omitempty" validate:"max=50"`
	Name      string                 `json:"name" validate:"required,max=200"`
	OwnerName string                 `json:"ownerName,omitempty" validate:"max=200"`
	Budget    float64                `json:"budget" validate:"gte=0"`
	BOQItems  []CreateBOQLineRequest `json:"boqItems,omitempty" validate:"omitempty,dive"`
}

type CreateBOQLineRequest struct {
	ItemID        uuid.UUID `json:"itemId" validate:"required"`
	TotalQuantity float64   `json:"totalQuantity" validate:"required,gt=0"`
}

type UpdateProjectRequest struct {
	Name      *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	OwnerName *string  `json:"ownerName,omitempty" validate:"omitempty,max=200"`
	Budget    *float64 `json:"budget,omitempty" validate:"omitempty,gte=0"`
	Status    *string  `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE ON_HOLD COMPLETED"`
}

type CreateMaterialRequestRequest struct {
	ProjectID uuid.UUID                  `json:"projectId" validate:"required"`
	Notes     string                     `json:"notes,omitempty" validate:"max=2000"`
	Lines     []CreateRequestLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type CreateRequestLineRequest struct {
	ItemID   uuid.UUID `json:"itemId" validate:"required"`
	Quantity float64   `json:"quantity" validate:"required,gt=0"`
}

type ReviewMaterialRequestRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes,omitempty" validate:"max=2000"`
}

type OpenRFQRequest struct {
	MaterialRequestID uuid.UUID `json:"materialRequestId" validate:"required"`
	Deadline          string    `json:"deadline" validate:"required"` // ISO 8601
}

type RecordQuotationRequest struct {
	RFQID       *uuid.UUID `json:"rfqId,omitempty"`
	SupplierID  uuid.UUID  `json:"supplierId" validate:"required"`
	TotalAmount float64    `json:"totalAmount" validate:"required,gt=0"`
	Currency    string     `json:"currency,omitempty" validate:"omitempty,len=3"`
	ValidUntil  *string    `json:"validUntil,omitempty"` // ISO 8601
}

type CreatePurchaseOrderRequest struct {
	ProjectID         uuid.UUID             `json:"projectId" validate:"required"`
	SupplierID        uuid.UUID             `json:"supplierId" validate:"required"`
	MaterialRequestID *uuid.UUID            `json:"materialRequestId,omitempty"`
	QuotationID       *uuid.UUID            `json:"quotationId,omitempty"`
	Lines             []CreatePOLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type CreatePOLineRequest struct {
	ItemID   uuid.UUID `json:"itemId" validate:"required"`
	Quantity float64   `json:"quantity" validate:"required,gt=0"`
	Price    float64   `json:"price" validate:"gte=0"`
}

type RecordReceiptRequest struct {
	Lines []ReceiptLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type ReceiptLineRequest struct {
	ItemID   uuid.UUID `json:"itemId" validate:"required"`
	Quantity float64   `json:"quantity" validate:"required,gt=0"`
}

type PostInvoiceRequest struct {
	PurchaseOrderID       uuid.UUID `json:"purchaseOrderId" validate:"required"`
	SupplierInvoiceNumber string    `json:"supplierInvoiceNumber,omitempty" validate:"max=100"`
	TotalAmount           float64   `json:"totalAmount" validate:"required,gt=0"`
}

type UpdateSystemSettingsRequest struct {
	CompanyName *string `json:"companyName,omitempty" validate:"omitempty,max=200"`
	TaxNumber   *string `json:"taxNumber,omitempty" validate:"omitempty,max=50"`
	Currency    *string `json:"currency,omitempty" validate:"omitempty,len=3"`
}

type AdvisoryRequest struct {
	ContextData map[string]interface{} `json:"contextData" validate:"required"`
	PromptType  string                 `json:"promptType" validate:"required,max=100"`
}

type AdvisoryResponse struct {
	Text string `json:"text"`
}
