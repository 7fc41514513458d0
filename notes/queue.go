package notes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmaines/notewarden/backend"
	"github.com/dmaines/notewarden/interact"
	"github.com/dmaines/notewarden/paginate"
	"github.com/dmaines/notewarden/session"
	"github.com/dmaines/notewarden/token"
)

// StartQueue renders page 1 of the guild's pending note requests and
// attaches the navigation collector. The filter context is cached in a
// session entry addressed by a fresh opaque reference.
func (s *Service) StartQueue(ctx context.Context, cmd Command) error {
	if err := s.checkCooldown(cmd.UserID); err != nil {
		return err
	}

	cfg, err := s.backend.GuildConfig(ctx, cmd.GuildID)
	if err != nil {
		return fmt.Errorf("fetching guild config: %w", err)
	}
	reqs, err := s.backend.ListRequests(ctx, cmd.GuildID)
	if err != nil {
		return fmt.Errorf("listing note requests: %w", err)
	}

	ref, err := token.NewReference()
	if err != nil {
		return err
	}
	w := paginate.ComputePage(len(reqs), s.pageSize, 1)
	state := session.QueueState{
		Owner:    cmd.UserID,
		GuildID:  cmd.GuildID,
		Page:     w.Page,
		PageSize: s.pageSize,
		IsAdmin:  cmd.IsAdmin,
		Thresholds: session.ConfigSnapshot{
			RatingThreshold:  cfg.RatingThreshold,
			EphemeralReplies: cfg.EphemeralReplies,
		},
	}
	key := session.Key(session.KindQueue, ref)
	s.sessions.Put(key, state, s.timeouts.Pagination)

	vm, err := s.queueView(reqs, w, ref, state.Thresholds.EphemeralReplies)
	if err != nil {
		s.sessions.Delete(key)
		return err
	}
	b, err := interact.Bind(ctx, s.surface, cmd.UserID, vm, interact.EventAny, s.timeouts.Collector)
	if err != nil {
		s.sessions.Delete(key)
		return err
	}
	b.OnExpire = func() { s.sessions.Delete(key) }
	s.router.Run(ctx, b)
	return nil
}

// handleQueueNav returns the handler for one navigation direction.
func (s *Service) handleQueueNav(delta int) interact.Handler {
	return func(ctx context.Context, b *interact.Binding, ev interact.Event, tok token.Token) error {
		key := session.Key(session.KindQueue, tok.Ref())
		state, ok := session.Lookup[session.QueueState](s.sessions, key)
		if !ok {
			s.replyExpired(ctx, ev)
			return nil
		}
		if state.Owner != ev.UserID {
			// The binding's owner gate already ran; this covers a
			// reference pasted across surfaces.
			s.replyExpired(ctx, ev)
			return nil
		}

		reqs, err := s.backend.ListRequests(ctx, state.GuildID)
		if err != nil {
			return fmt.Errorf("listing note requests: %w", err)
		}
		w := paginate.ComputePage(len(reqs), state.PageSize, state.Page+delta)
		state.Page = w.Page
		s.sessions.Put(key, state, s.timeouts.Pagination)

		vm, err := s.queueView(reqs, w, tok.Ref(), state.Thresholds.EphemeralReplies)
		if err != nil {
			return err
		}
		// The session mutation above stands even if the redraw fails.
		if err := b.Swap(ctx, vm); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelError, "queue redraw failed",
				slog.String("error", err.Error()))
		}
		return nil
	}
}

func (s *Service) queueView(reqs []backend.NoteRequest, w paginate.Window, ref token.Reference, ephemeral bool) (paginate.ViewModel, error) {
	items := make([]paginate.Item, 0, w.End-w.Start)
	for _, r := range reqs[w.Start:w.End] {
		write, err := token.Encode(token.VerbNoteWrite, r.ID, ref.String())
		if err != nil {
			return paginate.ViewModel{}, fmt.Errorf("encoding write token: %w", err)
		}
		ai, err := token.Encode(token.VerbNoteAI, r.ID, ref.String())
		if err != nil {
			return paginate.ViewModel{}, fmt.Errorf("encoding ai token: %w", err)
		}
		items = append(items, paginate.Item{
			Title: fmt.Sprintf("Request %s", r.ID),
			Body:  r.Excerpt,
			Buttons: []paginate.Button{
				{CustomID: write, Label: "Write note"},
				{CustomID: ai, Label: "AI draft"},
			},
		})
	}
	controls := paginate.PageControls(w,
		token.MustEncode(token.VerbQueuePrev, ref.String()),
		token.MustEncode(token.VerbQueueNext, ref.String()))

	vm := paginate.BuildViewModel(paginate.Summary("requests", w, len(reqs)), items, controls)
	vm.Ephemeral = ephemeral
	return vm, nil
}

func (s *Service) replyExpired(ctx context.Context, ev interact.Event) {
	if ev.Reply == nil {
		return
	}
	if err := ev.Reply(ctx, msgSessionExpired); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "expired reply failed",
			slog.String("error", err.Error()))
	}
}
