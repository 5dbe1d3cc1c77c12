package main

import (
	"fmt"
	"io"
	"strings"

	"notification_feed/internal/models"
	"notification_feed/internal/pagedlist"
)

const placeholderRows = 10

// view prints the notification list the way the alarm screen lays it out:
// one card per notification, placeholder rows while a page is loading.
type view struct {
	out     io.Writer
	printed int
}

func (v *view) header() {
	fmt.Fprintln(v.out, "재테크 가이드")
	fmt.Fprintln(v.out, strings.Repeat("─", 40))
}

func (v *view) placeholders() {
	for i := 0; i < placeholderRows; i++ {
		fmt.Fprintln(v.out, "  ░░░░░░░░░░░░░░░░░░░░░░░░░░░░")
	}
}

func (v *view) card(n models.Notification) {
	fmt.Fprintf(v.out, "[%d] 관심 상품 업데이트%s%s\n", n.ID, strings.Repeat(" ", 4), n.Date)
	fmt.Fprintf(v.out, "     %s\n\n", n.Message)
}

// appendNew prints only the notifications past what is already on screen.
func (v *view) appendNew(items []models.Notification) {
	if v.printed > len(items) {
		v.printed = 0
	}
	for _, n := range items[v.printed:] {
		v.card(n)
	}
	v.printed = len(items)
}

// redraw prints the whole list again, e.g. after an item was removed.
func (v *view) redraw(items []models.Notification) {
	v.header()
	v.printed = 0
	v.appendNew(items)
}

func (v *view) footer(st pagedlist.State) {
	switch {
	case st.Loading():
		v.placeholders()
	case st.HasNext:
		fmt.Fprintln(v.out, "-- more: <enter> | open <id> | list | quit --")
	default:
		fmt.Fprintln(v.out, "-- end of notifications: open <id> | list | quit --")
	}
}

func (v *view) suppressed(t pagedlist.Trigger) {
	switch t {
	case pagedlist.TriggerThrottled:
		fmt.Fprintln(v.out, "(slow down, try again in a moment)")
	case pagedlist.TriggerNoMore:
		fmt.Fprintln(v.out, "(no more notifications)")
	case pagedlist.TriggerInFlight:
		fmt.Fprintln(v.out, "(still loading, please wait)")
	case pagedlist.TriggerClosed:
		fmt.Fprintln(v.out, "(notification list is closed)")
	}
}
