package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rickgao/connsync/internal/model"
	"github.com/rickgao/connsync/internal/state"
)

// errQuit ends the command loop without error.
var errQuit = errors.New("quit")

// commander is the subset of *session.Session driven from the terminal.
type commander interface {
	SendRequest(receiver string) error
	Approve(sender string) error
	Reject(sender string) error
	Refresh() error
	Ping() error
	Logout()
	View() model.View
}

const helpText = `commands:
  send <user>      send a connection request
  approve <user>   approve a pending request
  reject <user>    reject a pending request
  refresh          request fresh user lists
  ping             ping the server
  state            print the current state
  logout           log out and exit
  quit             exit without logging out
`

// execute runs one command line.
func execute(line string, s commander, out io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	arg := func() (string, error) {
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: %s <user>", fields[0])
		}
		return fields[1], nil
	}

	switch cmd := strings.ToLower(fields[0]); cmd {
	case "send", "approve", "reject":
		user, err := arg()
		if err != nil {
			return err
		}
		switch cmd {
		case "send":
			return s.SendRequest(user)
		case "approve":
			return s.Approve(user)
		default:
			return s.Reject(user)
		}

	case "refresh":
		return s.Refresh()

	case "ping":
		return s.Ping()

	case "state":
		data, err := json.MarshalIndent(s.View(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil

	case "logout":
		s.Logout()
		return errQuit

	case "quit", "exit":
		return errQuit

	case "help":
		fmt.Fprint(out, helpText)
		return nil

	default:
		return fmt.Errorf("unknown command %q (try help)", fields[0])
	}
}

// runCommands reads command lines from in until EOF, quit or ctx ends.
func runCommands(ctx context.Context, in io.Reader, out io.Writer, s commander) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := execute(line, s, out)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
	}
}

// printChanges writes a line to out for every notification and error
// recorded in store until ctx ends.
func printChanges(ctx context.Context, store *state.Store, out io.Writer) {
	changes, unsubscribe := store.Watch(16)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ch := <-changes:
			switch ch.Kind {
			case state.ChangeNotification:
				if notes := store.Notifications(); len(notes) > 0 {
					fmt.Fprintf(out, "* %s\n", notes[0].Message)
				}
			case state.ChangeError:
				if msg := store.Error(); msg != "" {
					fmt.Fprintf(out, "! %s\n", msg)
				}
			case state.ChangeUsers:
				snap := store.Snapshot()
				fmt.Fprintf(out, "users: %d available, %d sent, %d pending, %d mutual\n",
					len(snap.Available), len(snap.SentRequests), len(snap.PendingRequests), len(snap.MutualConnections))
			}
		}
	}
}
