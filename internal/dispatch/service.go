package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"

	"github.com/roomly-app/push-backend/internal/notify/payloads"
	"github.com/roomly-app/push-backend/internal/tokens"
	"github.com/roomly-app/push-backend/pkg/config"
	"github.com/roomly-app/push-backend/pkg/db/models"
	"github.com/roomly-app/push-backend/pkg/enums"
	pkgerrors "github.com/roomly-app/push-backend/pkg/errors"
	"github.com/roomly-app/push-backend/pkg/expo"
	"github.com/roomly-app/push-backend/pkg/logger"
	"github.com/roomly-app/push-backend/pkg/metrics"
)

// Provider envelope defaults applied when the caller supplies none; without
// an explicit sound the push arrives silent on iOS.
const (
	defaultSound    = "default"
	defaultPriority = "high"
)

// Request is one dispatch invocation. Exactly one of UserID, UserIDs, or
// Topic must be set.
type Request struct {
	UserID  *uuid.UUID
	UserIDs []uuid.UUID
	Topic   *string

	Type     enums.NotificationType
	Title    string
	Body     string
	Data     json.RawMessage
	Priority string
	Sound    string
	Badge    *int
}

// RecipientResult is the per-user outcome breakdown.
type RecipientResult struct {
	UserID      uuid.UUID `json:"userId"`
	Success     bool      `json:"success"`
	SentCount   int       `json:"sentCount"`
	FailedCount int       `json:"failedCount"`
	Error       string    `json:"error,omitempty"`
}

// Result aggregates the whole dispatch.
type Result struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Results   []RecipientResult `json:"results"`
}

// Sender is the slice of the Expo client dispatch needs.
type Sender interface {
	Send(ctx context.Context, msg expo.Message) ([]expo.Ticket, error)
}

// Service forwards notification requests to the push provider and records
// per-ticket delivery outcomes.
type Service interface {
	Dispatch(ctx context.Context, req Request) (*Result, error)
}

type deliveryWriter interface {
	CreateBatch(ctx context.Context, records []models.DeliveryRecord) error
}

// ServiceParams groups dispatch dependencies.
type ServiceParams struct {
	Tokens   tokens.Repository
	Delivery deliveryWriter
	Sender   Sender
	Metrics  *metrics.DispatchMetrics
	Logg     *logger.Logger
	Cfg      config.DispatchConfig
}

type service struct {
	tokens   tokens.Repository
	delivery deliveryWriter
	sender   Sender
	metrics  *metrics.DispatchMetrics
	logg     *logger.Logger
	cfg      config.DispatchConfig
}

// NewService wires dispatch dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Tokens == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "token repository required")
	}
	if params.Delivery == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "delivery repository required")
	}
	if params.Sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "push sender required")
	}
	if params.Logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if params.Cfg.MaxInFlight <= 0 {
		params.Cfg.MaxInFlight = 8
	}
	return &service{
		tokens:   params.Tokens,
		delivery: params.Delivery,
		sender:   params.Sender,
		metrics:  params.Metrics,
		logg:     params.Logg,
		cfg:      params.Cfg,
	}, nil
}

func (s *service) Dispatch(ctx context.Context, req Request) (*Result, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	logCtx := s.logg.WithNotificationType(ctx, string(req.Type))

	if req.Topic != nil {
		return s.dispatchBroadcast(logCtx, req)
	}

	userIDs := req.UserIDs
	if req.UserID != nil {
		userIDs = []uuid.UUID{*req.UserID}
	}
	return s.dispatchUsers(logCtx, req, userIDs, nil)
}

// validate enforces the exactly-one-recipient-shape invariant before any I/O.
func (s *service) validate(req *Request) error {
	shapes := 0
	if req.UserID != nil {
		shapes++
	}
	if len(req.UserIDs) > 0 {
		shapes++
	}
	if req.Topic != nil {
		shapes++
	}
	if shapes == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "one of userId, userIds, or topic is required")
	}
	if shapes > 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "userId, userIds, and topic are mutually exclusive")
	}

	if req.Title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if req.Body == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "body is required")
	}

	if req.Type == "" {
		req.Type = enums.NotificationTypeSystem
	}
	if req.Sound == "" {
		req.Sound = defaultSound
	}
	if req.Priority == "" {
		req.Priority = defaultPriority
	}
	if !req.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown notification type %q", req.Type))
	}
	if _, err := payloads.Decode(req.Type, req.Data); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification data")
	}
	return nil
}

// dispatchBroadcast resolves every active token and fans out per owner. The
// topic's literal value is not a routing key; it is only echoed into the
// delivery metadata.
func (s *service) dispatchBroadcast(ctx context.Context, req Request) (*Result, error) {
	rows, err := s.tokens.ListActive(ctx, enums.PushProviderExpo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active push tokens")
	}
	if len(rows) == 0 {
		return &Result{
			Success: false,
			Message: "no active push tokens",
			Results: []RecipientResult{},
		}, nil
	}

	byUser := map[uuid.UUID][]models.PushToken{}
	order := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if _, seen := byUser[row.UserID]; !seen {
			order = append(order, row.UserID)
		}
		byUser[row.UserID] = append(byUser[row.UserID], row)
	}

	return s.dispatchUsers(ctx, req, order, byUser)
}

// dispatchUsers fans out one provider batch per user with bounded
// concurrency. Results come back in input order. resolved may carry
// pre-fetched tokens (broadcast path); when nil each worker queries its own.
func (s *service) dispatchUsers(ctx context.Context, req Request, userIDs []uuid.UUID, resolved map[uuid.UUID][]models.PushToken) (*Result, error) {
	results := make([]RecipientResult, len(userIDs))
	sem := semaphore.NewWeighted(int64(s.cfg.MaxInFlight))

	var wg sync.WaitGroup
	for i, userID := range userIDs {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "dispatch canceled")
		}
		wg.Add(1)
		go func(i int, userID uuid.UUID) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = s.dispatchOne(ctx, req, userID, resolved[userID])
		}(i, userID)
	}
	wg.Wait()

	result := &Result{Results: results}
	for _, r := range results {
		if r.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}
	result.Success = result.Failed == 0
	result.Message = fmt.Sprintf("dispatched to %d of %d recipients", result.Succeeded, len(results))
	return result, nil
}

// dispatchOne sends one provider batch for one user and records the outcome.
// Failures here are recipient-scoped: they land in the result, not in the
// returned error, so sibling recipients proceed.
func (s *service) dispatchOne(ctx context.Context, req Request, userID uuid.UUID, preResolved []models.PushToken) RecipientResult {
	logCtx := s.logg.WithUserID(ctx, userID.String())
	result := RecipientResult{UserID: userID}

	tokenRows := preResolved
	if tokenRows == nil {
		rows, err := s.tokens.ListActiveByUser(ctx, userID)
		if err != nil {
			s.logg.Error(logCtx, "token lookup failed", err)
			s.incAttempt(req.Type, "query_error")
			result.Error = "token lookup failed"
			return result
		}
		tokenRows = rows
	}
	if len(tokenRows) == 0 {
		s.incAttempt(req.Type, "no_tokens")
		result.Error = "no active push tokens"
		return result
	}

	recipients := make([]string, len(tokenRows))
	for i, row := range tokenRows {
		recipients[i] = row.Token
	}

	msg := expo.Message{
		To:        recipients,
		Title:     req.Title,
		Body:      req.Body,
		Data:      s.messageData(req),
		Sound:     req.Sound,
		Priority:  req.Priority,
		ChannelID: s.cfg.ChannelID,
		Badge:     req.Badge,
	}

	start := time.Now()
	tickets, err := s.sender.Send(ctx, msg)
	if s.metrics != nil {
		s.metrics.ObserveProviderLatency(string(enums.PushProviderExpo), time.Since(start))
	}
	if err != nil {
		s.logg.Error(logCtx, "push provider call failed", err)
		s.incAttempt(req.Type, "provider_error")
		result.FailedCount = len(tokenRows)
		result.Error = "push provider call failed"
		s.writeRecords(logCtx, s.failureRecords(req, tokenRows, err))
		return result
	}

	records, outcome := s.interpretTickets(logCtx, req, tokenRows, tickets)
	s.writeRecords(logCtx, records)

	result.SentCount = outcome.sent
	result.FailedCount = outcome.failed
	result.Success = outcome.sent > 0
	if !result.Success {
		result.Error = "all provider tickets failed"
		s.incAttempt(req.Type, "all_tickets_failed")
		return result
	}

	if len(outcome.sentTokenIDs) > 0 {
		if err := s.tokens.TouchLastUsed(ctx, outcome.sentTokenIDs, time.Now().UTC()); err != nil {
			s.logg.Warn(logCtx, "refreshing last_used_at failed")
		}
	}
	s.incAttempt(req.Type, "sent")
	return result
}

type ticketOutcome struct {
	sent         int
	failed       int
	sentTokenIDs []uuid.UUID
}

// interpretTickets pairs tickets to tokens positionally (the provider
// guarantees order) and turns each into one delivery record. Tokens the
// provider reports as unregistered get deactivated.
func (s *service) interpretTickets(ctx context.Context, req Request, tokenRows []models.PushToken, tickets []expo.Ticket) ([]models.DeliveryRecord, ticketOutcome) {
	var outcome ticketOutcome
	var deactivationErr error
	records := make([]models.DeliveryRecord, 0, len(tokenRows))

	for i, row := range tokenRows {
		record := models.DeliveryRecord{
			UserID:           row.UserID,
			NotificationType: req.Type,
			Platform:         row.Platform,
			Token:            row.Token,
			Metadata:         s.recordMetadata(req),
		}

		if i >= len(tickets) {
			// provider returned fewer tickets than recipients
			record.Status = enums.DeliveryStatusFailed
			record.Error = stringPtr("no ticket returned")
			outcome.failed++
			records = append(records, record)
			continue
		}

		ticket := tickets[i]
		if ticket.OK() {
			record.Status = enums.DeliveryStatusSent
			if ticket.ID != "" {
				record.TicketID = stringPtr(ticket.ID)
			}
			outcome.sent++
			outcome.sentTokenIDs = append(outcome.sentTokenIDs, row.ID)
			s.incTicket("ok")
			records = append(records, record)
			continue
		}

		record.Status = enums.DeliveryStatusFailed
		record.Error = stringPtr(ticket.Message)
		outcome.failed++
		s.incTicket("error")
		records = append(records, record)

		if ticket.DeviceNotRegistered() {
			if _, err := s.tokens.DeactivateByToken(ctx, row.Token); err != nil {
				deactivationErr = multierr.Append(deactivationErr, err)
			}
		}
	}

	if deactivationErr != nil {
		s.logg.Error(ctx, "deactivating unregistered tokens failed", deactivationErr)
	}
	return records, outcome
}

func (s *service) failureRecords(req Request, tokenRows []models.PushToken, cause error) []models.DeliveryRecord {
	records := make([]models.DeliveryRecord, 0, len(tokenRows))
	msg := cause.Error()
	for _, row := range tokenRows {
		records = append(records, models.DeliveryRecord{
			UserID:           row.UserID,
			NotificationType: req.Type,
			Platform:         row.Platform,
			Token:            row.Token,
			Status:           enums.DeliveryStatusFailed,
			Error:            stringPtr(msg),
			Metadata:         s.recordMetadata(req),
		})
	}
	return records
}

// writeRecords appends delivery rows. Failing to log never fails the
// dispatch itself.
func (s *service) writeRecords(ctx context.Context, records []models.DeliveryRecord) {
	if len(records) == 0 {
		return
	}
	if err := s.delivery.CreateBatch(ctx, records); err != nil {
		s.logg.Error(ctx, "writing delivery records failed", err)
	}
}

func (s *service) messageData(req Request) json.RawMessage {
	if len(req.Data) > 0 {
		return req.Data
	}
	data, _ := json.Marshal(map[string]string{"type": string(req.Type)})
	return data
}

func (s *service) recordMetadata(req Request) json.RawMessage {
	meta := map[string]any{"dispatchedAt": time.Now().UTC().Format(time.RFC3339)}
	if req.Topic != nil {
		meta["topic"] = *req.Topic
	}
	raw, _ := json.Marshal(meta)
	return raw
}

func (s *service) incAttempt(notificationType enums.NotificationType, outcome string) {
	if s.metrics != nil {
		s.metrics.IncAttempt(string(notificationType), outcome)
	}
}

func (s *service) incTicket(status string) {
	if s.metrics != nil {
		s.metrics.IncTicket(status)
	}
}

func stringPtr(value string) *string {
	return &value
}
