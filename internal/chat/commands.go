package chat

import (
	"fmt"
	"strings"

	"github.com/abhishek9sharma/sarathi/internal/config"
	"github.com/abhishek9sharma/sarathi/internal/llm"
)

var commandNames = []string{"/exit", "/quit", "/clear", "/history", "/reindex", "/model", "/tools", "/usage", "/help"}

var commandHelp = map[string]string{
	"/exit":    "leave the chat",
	"/quit":    "leave the chat",
	"/clear":   "forget the conversation",
	"/history": "list the messages of this conversation",
	"/reindex": "rescan project files for @-completion",
	"/model":   "show or switch the chat model",
	"/tools":   "list the tools the assistant can use",
	"/usage":   "show LLM usage of this process",
	"/help":    "show this help",
}

// HandleCommand runs a slash command
func (s *Session) HandleCommand(line string) {
	parts := strings.Fields(line)
	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "/exit", "/quit":
		s.running = false
		s.splog.Info("Goodbye!")
	case "/clear":
		s.engine.Reset()
		s.perms.Reset()
		s.sessionID, s.persisted = 0, len(s.engine.Messages())
		s.splog.Info("Context cleared.")
	case "/reindex":
		s.reindex()
		s.splog.Info("Project re-indexed. Found %d files.", s.index.Len())
	case "/history":
		for _, m := range s.engine.Messages() {
			s.splog.Info("[%s]: %s", m.Role, historyPreview(m))
		}
	case "/model":
		if len(parts) > 1 {
			model := parts[1]
			if err := s.cfg.UpdateAgentModel(config.AgentChat, model, false); err != nil {
				s.splog.Error("%v", err)
				return
			}
			s.client.SetModel(model)
			s.splog.Info("Model for this chat session switched to: %s", model)
			return
		}
		s.splog.Info("Current model: %s", s.client.Model())
		s.splog.Info("Usage: /model <model_name>")
	case "/tools":
		for _, name := range s.registry.Names() {
			tool, _ := s.registry.Get(name)
			marker := ""
			if tool.Sensitive {
				marker = " (asks permission)"
			}
			s.splog.Info("  %s%s: %s", name, marker, tool.Description)
		}
	case "/usage":
		if s.usage == nil || s.usage.Summary() == "" {
			s.splog.Info("No LLM calls yet.")
			return
		}
		s.splog.Print(s.usage.Summary())
	case "/help":
		for _, c := range commandNames {
			s.splog.Info("  %-9s %s", c, commandHelp[c])
		}
	default:
		s.splog.Info("Unknown command: %s", cmd)
	}
}

// historyPreview shows the first 50 characters of a message, or the number of
// tool calls when it has no text.
func historyPreview(m llm.Message) string {
	if m.Content == "" {
		if len(m.ToolCalls) > 0 {
			return fmt.Sprintf("<%d tool calls>", len(m.ToolCalls))
		}
		return ""
	}
	runes := []rune(m.Content)
	if len(runes) > 50 {
		runes = runes[:50]
	}
	return string(runes) + "..."
}
