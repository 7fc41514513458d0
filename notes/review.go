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

// notes with this backend status are awaiting ratings.
const statusPending = "pending"

// StartReview renders the list of notes awaiting ratings, with
// helpful/not-helpful controls per note.
func (s *Service) StartReview(ctx context.Context, cmd Command) error {
	if err := s.checkCooldown(cmd.UserID); err != nil {
		return err
	}

	cfg, err := s.backend.GuildConfig(ctx, cmd.GuildID)
	if err != nil {
		return fmt.Errorf("fetching guild config: %w", err)
	}
	list, err := s.backend.ListNotes(ctx, backend.ListNotesParams{GuildID: cmd.GuildID, Status: statusPending})
	if err != nil {
		return fmt.Errorf("listing notes: %w", err)
	}

	ref, err := token.NewReference()
	if err != nil {
		return err
	}
	w := paginate.ComputePage(len(list), s.pageSize, 1)
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
	key := session.Key(session.KindReview, ref)
	s.sessions.Put(key, state, s.timeouts.Pagination)

	vm, err := s.reviewView(list, w, ref, state.Thresholds.EphemeralReplies, state.IsAdmin)
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

func (s *Service) handleReviewNav(delta int) interact.Handler {
	return func(ctx context.Context, b *interact.Binding, ev interact.Event, tok token.Token) error {
		key := session.Key(session.KindReview, tok.Ref())
		state, ok := session.Lookup[session.QueueState](s.sessions, key)
		if !ok {
			s.replyExpired(ctx, ev)
			return nil
		}
		if state.Owner != ev.UserID {
			s.replyExpired(ctx, ev)
			return nil
		}

		list, err := s.backend.ListNotes(ctx, backend.ListNotesParams{GuildID: state.GuildID, Status: statusPending})
		if err != nil {
			return fmt.Errorf("listing notes: %w", err)
		}
		w := paginate.ComputePage(len(list), state.PageSize, state.Page+delta)
		state.Page = w.Page
		s.sessions.Put(key, state, s.timeouts.Pagination)

		vm, err := s.reviewView(list, w, tok.Ref(), state.Thresholds.EphemeralReplies, state.IsAdmin)
		if err != nil {
			return err
		}
		if err := b.Swap(ctx, vm); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelError, "review redraw failed",
				slog.String("error", err.Error()))
		}
		return nil
	}
}

// handleRate returns the handler for one rating direction. On success
// the list is re-rendered in place so counts stay fresh.
func (s *Service) handleRate(helpful bool) interact.Handler {
	return func(ctx context.Context, b *interact.Binding, ev interact.Event, tok token.Token) error {
		noteID := tok.Args[0]
		key := session.Key(session.KindReview, tok.Ref())
		state, ok := session.Lookup[session.QueueState](s.sessions, key)
		if !ok {
			s.replyExpired(ctx, ev)
			return nil
		}
		if state.Owner != ev.UserID {
			s.replyExpired(ctx, ev)
			return nil
		}

		if _, err := s.backend.RateNote(ctx, noteID, backend.RateNoteRequest{RaterID: ev.UserID, Helpful: helpful}); err != nil {
			return fmt.Errorf("rating note %s: %w", noteID, err)
		}

		list, err := s.backend.ListNotes(ctx, backend.ListNotesParams{GuildID: state.GuildID, Status: statusPending})
		if err != nil {
			return fmt.Errorf("listing notes: %w", err)
		}
		w := paginate.ComputePage(len(list), state.PageSize, state.Page)
		state.Page = w.Page
		s.sessions.Put(key, state, s.timeouts.Pagination)

		vm, err := s.reviewView(list, w, tok.Ref(), state.Thresholds.EphemeralReplies, state.IsAdmin)
		if err != nil {
			return err
		}
		if err := b.Swap(ctx, vm); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelError, "review redraw failed",
				slog.String("error", err.Error()))
		}
		if ev.Reply != nil {
			_ = ev.Reply(ctx, "Your rating was recorded.")
		}
		return nil
	}
}

func (s *Service) reviewView(list []backend.Note, w paginate.Window, ref token.Reference, ephemeral, isAdmin bool) (paginate.ViewModel, error) {
	items := make([]paginate.Item, 0, w.End-w.Start)
	for _, n := range list[w.Start:w.End] {
		up, err := token.Encode(token.VerbRateHelpful, n.ID, ref.String())
		if err != nil {
			return paginate.ViewModel{}, fmt.Errorf("encoding rate token: %w", err)
		}
		down, err := token.Encode(token.VerbRateUnhelpful, n.ID, ref.String())
		if err != nil {
			return paginate.ViewModel{}, fmt.Errorf("encoding rate token: %w", err)
		}
		buttons := []paginate.Button{
			{CustomID: up, Label: "Helpful"},
			{CustomID: down, Label: "Not helpful"},
		}
		if isAdmin {
			ask, err := token.Encode(token.VerbPublishAsk, n.ID, ref.String())
			if err != nil {
				return paginate.ViewModel{}, fmt.Errorf("encoding publish token: %w", err)
			}
			buttons = append(buttons, paginate.Button{CustomID: ask, Label: "Force publish", Danger: true})
		}
		items = append(items, paginate.Item{
			Title:   fmt.Sprintf("Note %s (%s)", n.ID, n.Classification),
			Body:    fmt.Sprintf("%s\nhelpful %d / not helpful %d", n.Content, n.HelpfulCount, n.NotHelpfulCount),
			Buttons: buttons,
		})
	}
	controls := paginate.PageControls(w,
		token.MustEncode(token.VerbReviewPrev, ref.String()),
		token.MustEncode(token.VerbReviewNext, ref.String()))

	vm := paginate.BuildViewModel(paginate.Summary("notes", w, len(list)), items, controls)
	vm.Ephemeral = ephemeral
	return vm, nil
}
