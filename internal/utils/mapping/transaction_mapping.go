package mapping

import (
	"github.com/SscSPs/hera_engine/internal/core/domain"
	"github.com/SscSPs/hera_engine/internal/models"
)

// ToModelTransaction converts a domain Transaction header to a model Transaction
func ToModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID:   d.TransactionID,
		OrganizationID:  d.OrganizationID,
		TransactionType: d.TransactionType,
		TransactionCode: d.TransactionCode,
		TransactionDate: d.TransactionDate,
		SourceEntityID:  d.SourceEntityID,
		TargetEntityID:  d.TargetEntityID,
		BranchEntityID:  d.BranchEntityID,
		TotalAmount:     d.TotalAmount,
		Currency:        d.Currency,
		Status:          string(d.Status),
		SmartCode:       d.SmartCode,
		ReversalOfID:    d.ReversalOfID,
		ReversedByID:    d.ReversedByID,
		Metadata:        d.Metadata,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTransaction converts a model Transaction to a domain Transaction header
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID:   m.TransactionID,
		OrganizationID:  m.OrganizationID,
		TransactionType: m.TransactionType,
		TransactionCode: m.TransactionCode,
		TransactionDate: m.TransactionDate.UTC(),
		SourceEntityID:  m.SourceEntityID,
		TargetEntityID:  m.TargetEntityID,
		BranchEntityID:  m.BranchEntityID,
		TotalAmount:     m.TotalAmount,
		Currency:        m.Currency,
		Status:          domain.TransactionStatus(m.Status),
		SmartCode:       m.SmartCode,
		ReversalOfID:    m.ReversalOfID,
		ReversedByID:    m.ReversedByID,
		Metadata:        m.Metadata,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelTransactionLine converts a domain TransactionLine to a model TransactionLine
func ToModelTransactionLine(d domain.TransactionLine) models.TransactionLine {
	return models.TransactionLine{
		LineID:         d.LineID,
		TransactionID:  d.TransactionID,
		OrganizationID: d.OrganizationID,
		LineNumber:     d.LineNumber,
		LineType:       d.LineType,
		EntityID:       d.EntityID,
		Quantity:       d.Quantity,
		UnitAmount:     d.UnitAmount,
		LineAmount:     d.LineAmount,
		Side:           nullable(string(d.Side)),
		Currency:       d.Currency,
		LineData:       d.LineData,
		SmartCode:      d.SmartCode,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTransactionLine converts a model TransactionLine to a domain TransactionLine
func ToDomainTransactionLine(m models.TransactionLine) domain.TransactionLine {
	return domain.TransactionLine{
		LineID:         m.LineID,
		TransactionID:  m.TransactionID,
		OrganizationID: m.OrganizationID,
		LineNumber:     m.LineNumber,
		LineType:       m.LineType,
		EntityID:       m.EntityID,
		Quantity:       m.Quantity,
		UnitAmount:     m.UnitAmount,
		LineAmount:     m.LineAmount,
		Side:           domain.LineSide(value(m.Side)),
		Currency:       m.Currency,
		LineData:       m.LineData,
		SmartCode:      m.SmartCode,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}
