// Package service holds the board and task use cases. Every operation checks
// the caller against the access guard before it touches a store, and
// publishes a realtime event after a successful mutation.
package service

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"taskboard/internal/access"
	"taskboard/internal/model"
	"taskboard/internal/realtime"
)

const tracerName = "taskboard/service"

func startSpan(ctx context.Context, name string, boardID uuid.UUID) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	if boardID != uuid.Nil {
		span.SetAttributes(attribute.String("board.id", boardID.String()))
	}
	return ctx, span
}

// finishSpan ends span, marking it failed only for unexpected errors.
func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.SetAttributes(attribute.String("error.kind", KindOf(err).String()))
		if KindOf(err) == KindUnexpected {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}

func loadBoard(ctx context.Context, boards BoardStore, id uuid.UUID) (*model.Board, error) {
	board, err := boards.GetByID(ctx, id)
	if err != nil {
		return nil, Unexpected("Failed to retrieve board", err)
	}
	if board == nil {
		return nil, NotFound("Board not found")
	}
	return board, nil
}

func requireView(board *model.Board, userID uuid.UUID) error {
	if !access.CanView(access.FromBoard(board), userID) {
		return Forbidden("You don't have access to this board")
	}
	return nil
}

func requireAdmin(board *model.Board, userID uuid.UUID, action string) error {
	if !access.CanAdminister(access.FromBoard(board), userID) {
		return Forbidden("You don't have permission to " + action)
	}
	return nil
}

func publish(ctx context.Context, pub realtime.Publisher, typ string, boardID uuid.UUID, payload any) {
	pub.Publish(ctx, realtime.Event{Type: typ, BoardID: boardID, Payload: payload})
}
