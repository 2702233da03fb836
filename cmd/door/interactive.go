package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/okian/doorlog/internal/app"
)

func newInteractiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Prompt for enter/exit requests on stdin",
		Long: `interactive asks for an action and a user code in a loop and prints
the door's answer. End input (Ctrl-D) to quit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			done, err := setupLogging(cmd)
			if err != nil {
				return err
			}
			defer done()

			ctx := cmd.Context()
			s, err := connect(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			return converse(ctx, s.door, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// converse runs the prompt loop until in is exhausted or ctx ends.
func converse(ctx context.Context, door *service.Door, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	ask := func(prompt string) (string, bool) {
		fmt.Fprint(out, prompt)
		if !sc.Scan() {
			return "", false
		}
		return strings.TrimSpace(sc.Text()), true
	}

	for ctx.Err() == nil {
		if occ := door.Occupant(); occ != "" {
			fmt.Fprintf(out, "Occupant: %s\n", occ)
		} else {
			fmt.Fprintln(out, "No Current Occupant")
		}

		action, ok := ask("Do you want to enter or exit? Type 'enter' or 'exit': ")
		if !ok {
			break
		}
		code, ok := ask("Please enter your user code: ")
		if !ok {
			break
		}

		dec, err := door.Handle(ctx, action, code)
		switch {
		case errors.Is(err, service.ErrUnknownAction):
			fmt.Fprintln(out, "Invalid choice. Please type 'enter' or 'exit'.")
		case err != nil:
			fmt.Fprintf(out, "Door message not sent: %v\n", err)
		default:
			fmt.Fprintln(out, answer(dec, code))
		}
	}
	return sc.Err()
}

func answer(dec service.Decision, code string) string {
	switch dec {
	case service.DecisionEntered:
		return fmt.Sprintf("Access granted to %s.", code)
	case service.DecisionExited:
		return fmt.Sprintf("Access period ended for %s.", code)
	case service.DecisionAlreadyInside:
		return "Access denied. You are already inside."
	case service.DecisionOccupied:
		return fmt.Sprintf("Access denied to %s. Controlled area is currently occupied.", code)
	case service.DecisionNotOccupant:
		return fmt.Sprintf("Access denied to %s. You are not the current occupant.", code)
	case service.DecisionInvalidCode:
		return "Invalid user code."
	default:
		return string(dec)
	}
}
