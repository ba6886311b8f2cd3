// Package adapters wires cross-module collaborations behind narrow interfaces.
package adapters

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"solarmarket_backend/internal/contracts/repository"
	"solarmarket_backend/internal/documents"
	"solarmarket_backend/internal/events"
	"solarmarket_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ContractDocumentReader is the narrow interface the document processor uses
// to read contract data and persist the PDF file key.
type ContractDocumentReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Contract, error)
	ListMilestones(ctx context.Context, contractID uuid.UUID) ([]repository.Milestone, error)
	SetDocumentKey(ctx context.Context, contractID uuid.UUID, key string) error
}

// DocumentStorage is the slice of the storage service the processor needs.
type DocumentStorage interface {
	Upload(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)
}

// DocumentBucketConfig is the narrow config interface for the documents bucket.
type DocumentBucketConfig interface {
	GetMinioBucketContractDocuments() string
}

// ContractDocumentProcessor renders the contract PDF when a contract is
// issued, uploads it and persists the file key on the contract.
type ContractDocumentProcessor struct {
	repo      ContractDocumentReader
	generator *documents.Generator
	storage   DocumentStorage
	cfg       DocumentBucketConfig
	baseURL   string
	log       *logger.Logger
}

// NewContractDocumentProcessor creates a new processor adapter.
func NewContractDocumentProcessor(
	repo ContractDocumentReader,
	generator *documents.Generator,
	storageSvc DocumentStorage,
	cfg DocumentBucketConfig,
	baseURL string,
	log *logger.Logger,
) *ContractDocumentProcessor {
	return &ContractDocumentProcessor{
		repo:      repo,
		generator: generator,
		storage:   storageSvc,
		cfg:       cfg,
		baseURL:   baseURL,
		log:       log,
	}
}

// Subscribe registers the processor on the event bus.
func (p *ContractDocumentProcessor) Subscribe(bus events.Bus) {
	bus.Subscribe(events.EventContractIssued, events.HandlerFunc(p.handleContractIssued))
}

func (p *ContractDocumentProcessor) handleContractIssued(ctx context.Context, event events.Event) error {
	issued, ok := event.(events.ContractIssued)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	key, err := p.GenerateAndStore(ctx, issued.ContractID, issued.ProjectTitle)
	if err != nil {
		p.log.Error("failed to generate contract document",
			"contract_id", issued.ContractID,
			"error", err)
		return err
	}

	p.log.Info("contract document stored",
		"contract_id", issued.ContractID,
		"file_key", key)
	return nil
}

// GenerateAndStore builds the contract PDF, uploads it and persists the file
// key. Safe to re-run; the upload key is deterministic per contract.
func (p *ContractDocumentProcessor) GenerateAndStore(ctx context.Context, contractID uuid.UUID, projectTitle string) (string, error) {
	var (
		contract   *repository.Contract
		milestones []repository.Milestone
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := p.repo.GetByID(gctx, contractID)
		if err != nil {
			return fmt.Errorf("fetch contract for document: %w", err)
		}
		contract = c
		return nil
	})
	g.Go(func() error {
		ms, err := p.repo.ListMilestones(gctx, contractID)
		if err != nil {
			return fmt.Errorf("fetch milestones for document: %w", err)
		}
		milestones = ms
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	lines := make([]documents.MilestoneLine, 0, len(milestones))
	for _, m := range milestones {
		lines = append(lines, documents.MilestoneLine{
			Sequence:        m.Sequence,
			Name:            m.Name,
			PercentageBps:   m.PercentageBps,
			AmountCents:     m.AmountCents,
			CommissionCents: m.CommissionCents,
		})
	}

	pdfBytes, err := p.generator.Generate(documents.ContractDocument{
		ContractNumber: contract.ContractNumber,
		ProjectTitle:   projectTitle,
		PaymentType:    contract.PaymentType,
		TotalCents:     contract.TotalCents,
		Milestones:     lines,
		IssuedAt:       contract.CreatedAt,
		VerifyURL:      fmt.Sprintf("%s/api/v1/contracts/%s", p.baseURL, contract.ID),
	})
	if err != nil {
		return "", err
	}

	key, err := p.storage.Upload(ctx,
		p.cfg.GetMinioBucketContractDocuments(),
		"contracts",
		contract.ContractNumber+".pdf",
		"application/pdf",
		bytes.NewReader(pdfBytes),
		int64(len(pdfBytes)),
	)
	if err != nil {
		return "", fmt.Errorf("upload contract document: %w", err)
	}

	if err := p.repo.SetDocumentKey(ctx, contractID, key); err != nil {
		return "", fmt.Errorf("persist document key: %w", err)
	}
	return key, nil
}
