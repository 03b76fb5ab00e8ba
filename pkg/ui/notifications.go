package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// NotificationSender delivers a desktop notification.
type NotificationSender interface {
	Send(title, message string) error
}

// CommandSender runs an external program to show notifications.
type CommandSender struct {
	Name string
	Args func(title, message string) []string
}

func (c CommandSender) Send(title, message string) error {
	return exec.Command(c.Name, c.Args(title, message)...).Run()
}

// PlatformSender returns the notifier for the current OS, or nil when there
// is none.
func PlatformSender() NotificationSender {
	switch runtime.GOOS {
	case "linux":
		return CommandSender{Name: "notify-send", Args: func(t, m string) []string { return []string{t, m} }}
	case "darwin":
		return CommandSender{Name: "osascript", Args: func(t, m string) []string {
			return []string{"-e", fmt.Sprintf(`display notification %q with title %q`, m, t)}
		}}
	default:
		return nil
	}
}

// Notifier echoes a message to the terminal and, when a sender is present,
// to the desktop. Desktop failures are ignored.
type Notifier struct {
	p      *Printer
	sender NotificationSender
}

func NewNotifier(p *Printer, sender NotificationSender) *Notifier {
	return &Notifier{p: p, sender: sender}
}

func (n *Notifier) Success(title, message string) {
	n.p.Success(title + ": " + message)
	n.send(title, message)
}

func (n *Notifier) Error(title, message string) {
	n.p.Error(title, message)
	n.send(title, message)
}

func (n *Notifier) send(title, message string) {
	if n.sender == nil {
		return
	}
	_ = n.sender.Send(title, strings.TrimSpace(message))
}
