package logger

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Emitter writes per-user session log lines of the form
//
//	<unix-ms> | <message> | <userID>
//
// where the date and user segments are optional. It is a best-effort side
// channel: failures and missing user ids never reach the caller's control
// flow. A disabled emitter drops every line, which is how tests silence it.
type Emitter struct {
	mu          sync.Mutex
	out         io.Writer
	userID      string
	printDate   bool
	printUserID bool
	enabled     bool
}

// EmitterOptions configures a new Emitter. A nil Out defaults to stdout.
type EmitterOptions struct {
	UserID      string
	PrintDate   bool
	PrintUserID bool
	Disabled    bool
	Out         io.Writer
}

func NewEmitter(opts EmitterOptions) *Emitter {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	return &Emitter{
		out:         out,
		userID:      opts.UserID,
		printDate:   opts.PrintDate,
		printUserID: opts.PrintUserID,
		enabled:     !opts.Disabled,
	}
}

// SetUserID replaces the default user id used when Emit is called without one.
func (e *Emitter) SetUserID(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.userID = id
}

func (e *Emitter) SetEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enabled
}

func (e *Emitter) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// Emit writes a line tagged with the emitter's default user id.
func (e *Emitter) Emit(message string) {
	e.EmitFor(message, "")
}

// EmitFor writes a line tagged with the given user id. An empty id falls
// back to the default; if neither is set the line goes out untagged.
func (e *Emitter) EmitFor(message string, userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.enabled {
		return
	}

	if userID == "" {
		userID = e.userID
	}

	var b strings.Builder
	if e.printDate {
		b.WriteString(strconv.FormatInt(time.Now().UnixMilli(), 10))
		b.WriteString(" | ")
	}
	b.WriteString(message)
	if e.printUserID && userID != "" {
		b.WriteString(" | ")
		b.WriteString(userID)
	}

	fmt.Fprintln(e.out, b.String())
}
