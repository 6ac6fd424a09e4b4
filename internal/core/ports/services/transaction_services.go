package services

import (
	"context"

	"github.com/SscSPs/hera_engine/internal/core/domain"
	"github.com/SscSPs/hera_engine/internal/dto"
)

// TransactionReaderSvc defines read operations for the ledger.
type TransactionReaderSvc interface {
	ReadTransactions(ctx context.Context, actx domain.ActorContext, req dto.TransactionRequest) (*dto.TransactionPage, error)
}

// TransactionWriterSvc defines the atomic write operations for the ledger.
type TransactionWriterSvc interface {
	// CreateTransaction runs every guard in order and writes header, lines,
	// dynamic data and relationships in one scope.
	CreateTransaction(ctx context.Context, actx domain.ActorContext, req dto.TransactionRequest) (*domain.Transaction, error)
	// UpdateTransaction applies a status transition and/or a full line replacement.
	UpdateTransaction(ctx context.Context, actx domain.ActorContext, req dto.TransactionRequest) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, actx domain.ActorContext, req dto.TransactionRequest) (*dto.DeleteResult, error)
}

// TransactionSvcFacade combines all transaction service interfaces.
type TransactionSvcFacade interface {
	TransactionReaderSvc
	TransactionWriterSvc
}
