package mapper

import (
	"github.com/itqan-erp/procurement-api/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Role:          user.Role,
		ApprovalLimit: user.ApprovalLimit,
		IsActive:      user.IsActive,
		CreatedAt:     user.CreatedAt.Format(timeFormat),
		UpdatedAt:     user.UpdatedAt.Format(timeFormat),
	}
}

// ToSupplierDTO converts Supplier to SupplierDTO
func ToSupplierDTO(supplier *domain.Supplier) domain.SupplierDTO {
	return domain.SupplierDTO{
		ID:            supplier.ID,
		Name:          supplier.Name,
		ContactPerson: supplier.ContactPerson,
		Email:         supplier.Email,
		Phone:         supplier.Phone,
		Rating:        supplier.Rating,
		CreatedAt:     supplier.CreatedAt.Format(timeFormat),
		UpdatedAt:     supplier.UpdatedAt.Format(timeFormat),
	}
}

// ToItemDTO converts Item to ItemDTO
func ToItemDTO(item *domain.Item) domain.ItemDTO {
	return domain.ItemDTO{
		ID:        item.ID,
		SKU:       item.SKU,
		Name:      item.Name,
		Unit:      item.Unit,
		BasePrice: item.BasePrice,
		Category:  item.Category,
		CreatedAt: item.CreatedAt.Format(timeFormat),
		UpdatedAt: item.UpdatedAt.Format(timeFormat),
	}
}

// ToProjectDTO converts Project to ProjectDTO
func ToProjectDTO(project *domain.Project) domain.ProjectDTO {
	dto := domain.ProjectDTO{
		ID:        project.ID,
		Code:      project.Code,
		Name:      project.Name,
		OwnerName: project.OwnerName,
		Budget:    project.Budget,
		Spent:     project.Spent,
		Status:    project.Status,
		CreatedAt: project.CreatedAt.Format(timeFormat),
		UpdatedAt: project.UpdatedAt.Format(timeFormat),
	}
	for i := range project.BOQItems {
		dto.BOQItems = append(dto.BOQItems, ToProjectBOQDTO(&project.BOQItems[i]))
	}
	return dto
}

// ToProjectBOQDTO converts ProjectBOQ to ProjectBOQDTO
func ToProjectBOQDTO(line *domain.ProjectBOQ) domain.ProjectBOQDTO {
	dto := domain.ProjectBOQDTO{
		ID:               line.ID,
		ProjectID:        line.ProjectID,
		ItemID:           line.ItemID,
		TotalQuantity:    line.TotalQuantity,
		ReceivedQuantity: line.ReceivedQuantity,
	}
	if line.Item != nil {
		dto.ItemName = line.Item.Name
		dto.Unit = line.Item.Unit
	}
	return dto
}

// ToMaterialRequestDTO converts MaterialRequest to MaterialRequestDTO
func ToMaterialRequestDTO(req *domain.MaterialRequest) domain.MaterialRequestDTO {
	dto := domain.MaterialRequestDTO{
		ID:          req.ID,
		ProjectID:   req.ProjectID,
		RequesterID: req.RequesterID,
		Status:      req.Status,
		Notes:       req.Notes,
		Lines:       make([]domain.RequestLineDTO, 0, len(req.Lines)),
		CreatedAt:   req.CreatedAt.Format(timeFormat),
		UpdatedAt:   req.UpdatedAt.Format(timeFormat),
	}
	if req.Project != nil {
		dto.ProjectName = req.Project.Name
	}
	if req.Requester != nil {
		dto.RequesterName = req.Requester.Name
	}
	for i := range req.Lines {
		line := &req.Lines[i]
		lineDTO := domain.RequestLineDTO{
			ID:       line.ID,
			ItemID:   line.ItemID,
			Quantity: line.Quantity,
		}
		if line.Item != nil {
			lineDTO.ItemName = line.Item.Name
			lineDTO.Unit = line.Item.Unit
		}
		dto.Lines = append(dto.Lines, lineDTO)
	}
	return dto
}

// ToRFQDTO converts RFQ to RFQDTO
func ToRFQDTO(rfq *domain.RFQ) domain.RFQDTO {
	dto := domain.RFQDTO{
		ID:                rfq.ID,
		MaterialRequestID: rfq.MaterialRequestID,
		CreatedByID:       rfq.CreatedByID,
		Status:            rfq.Status,
		Deadline:          rfq.Deadline.Format(timeFormat),
		CreatedAt:         rfq.CreatedAt.Format(timeFormat),
	}
	for i := range rfq.Quotations {
		dto.Quotations = append(dto.Quotations, ToQuotationDTO(&rfq.Quotations[i]))
	}
	return dto
}

// ToQuotationDTO converts Quotation to QuotationDTO
func ToQuotationDTO(q *domain.Quotation) domain.QuotationDTO {
	dto := domain.QuotationDTO{
		ID:          q.ID,
		RFQID:       q.RFQID,
		SupplierID:  q.SupplierID,
		TotalAmount: q.TotalAmount,
		Currency:    q.Currency,
		Selected:    q.Selected,
		CreatedAt:   q.CreatedAt.Format(timeFormat),
	}
	if q.Supplier != nil {
		dto.SupplierName = q.Supplier.Name
	}
	if q.ValidUntil != nil {
		validUntil := q.ValidUntil.Format(timeFormat)
		dto.ValidUntil = &validUntil
	}
	return dto
}

// ToPurchaseOrderDTO converts PurchaseOrder to PurchaseOrderDTO
func ToPurchaseOrderDTO(po *domain.PurchaseOrder) domain.PurchaseOrderDTO {
	dto := domain.PurchaseOrderDTO{
		ID:                po.ID,
		ProjectID:         po.ProjectID,
		SupplierID:        po.SupplierID,
		MaterialRequestID: po.MaterialRequestID,
		QuotationID:       po.QuotationID,
		Status:            po.Status,
		TotalAmount:       po.TotalAmount,
		ApprovedByID:      po.ApprovedByID,
		Lines:             make([]domain.POLineDTO, 0, len(po.Lines)),
		CreatedAt:         po.CreatedAt.Format(timeFormat),
		UpdatedAt:         po.UpdatedAt.Format(timeFormat),
	}
	if po.Project != nil {
		dto.ProjectName = po.Project.Name
	}
	if po.Supplier != nil {
		dto.SupplierName = po.Supplier.Name
	}
	if po.ApprovedAt != nil {
		approvedAt := po.ApprovedAt.Format(timeFormat)
		dto.ApprovedAt = &approvedAt
	}
	for i := range po.Lines {
		line := &po.Lines[i]
		lineDTO := domain.POLineDTO{
			ID:               line.ID,
			ItemID:           line.ItemID,
			Quantity:         line.Quantity,
			Price:            line.Price,
			ReceivedQuantity: line.ReceivedQuantity,
		}
		if line.Item != nil {
			lineDTO.ItemName = line.Item.Name
			lineDTO.Unit = line.Item.Unit
		}
		dto.Lines = append(dto.Lines, lineDTO)
	}
	for i := range po.Receipts {
		dto.Receipts = append(dto.Receipts, ToReceiptDTO(&po.Receipts[i]))
	}
	return dto
}

// ToReceiptDTO converts Receipt to ReceiptDTO
func ToReceiptDTO(receipt *domain.Receipt) domain.ReceiptDTO {
	dto := domain.ReceiptDTO{
		ID:              receipt.ID,
		PurchaseOrderID: receipt.PurchaseOrderID,
		ReceivedByID:    receipt.ReceivedByID,
		ReceivedAt:      receipt.ReceivedAt.Format(timeFormat),
		Lines:           make([]domain.ReceiptLineDTO, 0, len(receipt.Lines)),
	}
	if receipt.ReceivedBy != nil {
		dto.ReceivedByName = receipt.ReceivedBy.Name
	}
	for i := range receipt.Lines {
		line := &receipt.Lines[i]
		lineDTO := domain.ReceiptLineDTO{
			ID:       line.ID,
			ItemID:   line.ItemID,
			Quantity: line.Quantity,
		}
		if line.Item != nil {
			lineDTO.ItemName = line.Item.Name
		}
		dto.Lines = append(dto.Lines, lineDTO)
	}
	return dto
}

// ToInvoiceDTO converts Invoice to InvoiceDTO
func ToInvoiceDTO(inv *domain.Invoice) domain.InvoiceDTO {
	return domain.InvoiceDTO{
		ID:                    inv.ID,
		PurchaseOrderID:       inv.PurchaseOrderID,
		SupplierInvoiceNumber: inv.SupplierInvoiceNumber,
		TotalAmount:           inv.TotalAmount,
		Status:                inv.Status,
		MatchDetails:          inv.MatchDetails,
		CreatedAt:             inv.CreatedAt.Format(timeFormat),
		UpdatedAt:             inv.UpdatedAt.Format(timeFormat),
	}
}

// ToSystemSettingsDTO converts SystemSettings to SystemSettingsDTO
func ToSystemSettingsDTO(settings *domain.SystemSettings) domain.SystemSettingsDTO {
	return domain.SystemSettingsDTO{
		CompanyName: settings.CompanyName,
		TaxNumber:   settings.TaxNumber,
		Currency:    settings.Currency,
	}
}

// ToAuditLogDTO converts AuditLog to AuditLogDTO
func ToAuditLogDTO(log *domain.AuditLog) domain.AuditLogDTO {
	return domain.AuditLogDTO{
		ID:        log.ID,
		UserID:    log.UserID,
		UserName:  log.UserName,
		Action:    log.Action,
		Details:   log.Details,
		Category:  log.Category,
		CreatedAt: log.CreatedAt.Format(timeFormat),
	}
}
