package services

import (
	"context"

	"github.com/SscSPs/hera_engine/internal/core/domain"
	"github.com/SscSPs/hera_engine/internal/dto"
)

// EntityReaderSvc defines read operations for entities.
type EntityReaderSvc interface {
	// ReadEntities returns a page of entities, optionally hydrated.
	ReadEntities(ctx context.Context, actx domain.ActorContext, req dto.EntityRequest) (*dto.EntityPage, error)
}

// EntityWriterSvc defines the atomic write operations for entities.
type EntityWriterSvc interface {
	CreateEntity(ctx context.Context, actx domain.ActorContext, req dto.EntityRequest) (*domain.Entity, error)
	UpdateEntity(ctx context.Context, actx domain.ActorContext, req dto.EntityRequest) (*domain.Entity, error)
	// UpsertEntity creates when no entity_id is supplied or the id is unknown, else updates.
	UpsertEntity(ctx context.Context, actx domain.ActorContext, req dto.EntityRequest) (*domain.Entity, error)
	// DeleteEntity soft deletes unless options.hard_delete is set.
	DeleteEntity(ctx context.Context, actx domain.ActorContext, req dto.EntityRequest) (*dto.DeleteResult, error)
}

// EntitySvcFacade combines all entity service interfaces.
type EntitySvcFacade interface {
	EntityReaderSvc
	EntityWriterSvc
}
