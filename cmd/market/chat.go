package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/sudo-init-do/marketfront/internal/chat"
	"github.com/sudo-init-do/marketfront/internal/reservation"
	"github.com/sudo-init-do/marketfront/internal/session"
)

func cmdChats(ctx context.Context, a *app, _ []string) error {
	id, err := a.identity()
	if err != nil {
		return err
	}
	chats, err := a.api.Chats(ctx, id.Auth())
	if err != nil {
		return err
	}
	if len(chats) == 0 {
		fmt.Fprintln(a.out, "No chats yet.")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHAT\tPRODUCT\tWITH\tUNREAD\tLAST")
	for _, c := range chats {
		with := ""
		if c.Opponent != nil {
			with = c.Opponent.Nickname
		}
		last := ""
		if c.LastMessageAt != nil {
			last = posted(*c.LastMessageAt)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s %s\n", c.ChatID, c.ProductTitle, with, c.UnreadCount, last, c.LastMessage)
	}
	return tw.Flush()
}

// chatRoom drives one interactive room: the live session plus the seller's
// reservation controls.
type chatRoom struct {
	a        *app
	me       session.Identity
	sess     *chat.Session
	workflow *reservation.Workflow
	printed  int
	state    chat.State
}

func cmdChat(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("chat", pflag.ContinueOnError)
	productID := fs.Int64("product", 0, "start a chat about this product")
	if err := fs.Parse(args); err != nil {
		return err
	}
	me, err := a.identity()
	if err != nil {
		return err
	}

	var chatID int64
	switch {
	case *productID > 0:
		if chatID, err = a.api.CreateChat(ctx, me.Auth(), *productID); err != nil {
			return err
		}
	default:
		if chatID, err = parseID(fs.Args(), "chat"); err != nil {
			return err
		}
	}

	info, err := a.api.Chat(ctx, me.Auth(), chatID)
	if err != nil {
		return err
	}

	sess := chat.NewSession(chat.Options{
		ChatID:            chatID,
		Auth:              me.Auth(),
		History:           a.api,
		Transport:         &chat.StompTransport{URL: a.cfg.ChatURL},
		ReconnectAttempts: a.cfg.ChatReconnectAttempts,
		BackoffInitial:    a.cfg.ChatBackoffInitial,
		BackoffMax:        a.cfg.ChatBackoffMax,
		Logger:            a.log,
	})
	defer sess.Close()

	room := &chatRoom{
		a:        a,
		me:       me,
		sess:     sess,
		workflow: reservation.New(a.api, me, info),
		state:    chat.Disconnected,
	}
	room.header()
	if err := sess.Open(ctx); err != nil {
		return err
	}
	room.render()
	return room.loop(ctx)
}

func (r *chatRoom) header() {
	info := r.workflow.Info()
	out := r.a.out
	if info.Product != nil {
		fmt.Fprintf(out, "== %s (#%d) ==\n", info.Product.Title, info.Product.ID)
	}
	if r.workflow.IsSeller() {
		fmt.Fprintln(out, "You are the seller. /reserve, /cancel <reasonId> [detail], /reasons")
	}
	fmt.Fprintln(out, "Type a message and press enter. /quit leaves the room.")
}

func (r *chatRoom) loop(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := r.a.in.ReadString('\n')
			if line = strings.TrimSpace(line); line != "" {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-r.sess.Changed():
			if !ok {
				return nil
			}
			r.render()
			if r.sess.State() == chat.Disconnected && errors.Is(r.sess.Err(), chat.ErrConnLost) {
				return r.sess.Err()
			}
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if line == "/quit" {
				return nil
			}
			if err := r.handle(ctx, line); err != nil {
				fmt.Fprintln(r.a.out, "!", describe(err))
			}
		}
	}
}

func (r *chatRoom) handle(ctx context.Context, line string) error {
	if !strings.HasPrefix(line, "/") {
		return r.sess.Send(line)
	}
	cmd, rest, _ := strings.Cut(line, " ")
	switch cmd {
	case "/reasons":
		for _, reason := range reservation.Reasons {
			fmt.Fprintf(r.a.out, "  %d  %s\n", reason.ID, reason.Label)
		}
		return nil
	case "/reserve":
		if err := r.workflow.Create(ctx); err != nil {
			return err
		}
		fmt.Fprintln(r.a.out, "* reserved")
		return nil
	case "/cancel":
		idStr, detail, _ := strings.Cut(strings.TrimSpace(rest), " ")
		reasonID, err := strconv.Atoi(idStr)
		if err != nil {
			return reservation.ErrReasonRequired
		}
		if err := r.workflow.Cancel(ctx, reasonID, strings.TrimSpace(detail)); err != nil {
			return err
		}
		fmt.Fprintln(r.a.out, "* reservation canceled")
		return nil
	}
	return fmt.Errorf("unknown command %s", cmd)
}

// render prints messages that arrived since the last call and any state
// change.
func (r *chatRoom) render() {
	out := r.a.out
	if st := r.sess.State(); st != r.state {
		r.state = st
		line := "* " + st.String()
		if err := r.sess.Err(); err != nil && st != chat.Connected {
			line += ": " + err.Error()
		}
		fmt.Fprintln(out, line)
	}
	msgs := r.sess.Messages()
	for _, m := range msgs[min(r.printed, len(msgs)):] {
		who := "them"
		if m.SenderID == r.me.UserID {
			who = "me"
		}
		fmt.Fprintf(out, "[%s] %-4s %s\n", m.CreatedAt.Format("15:04"), who, m.Content)
	}
	r.printed = len(msgs)
}
