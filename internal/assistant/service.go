package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clinovahq/clinic-platform/pkg/logging"
)

const maxHistoryTurns = 20

// Service answers scheduling questions about the clinic. It grounds the
// model with the clinic's booking rules so answers stay on topic.
type Service struct {
	llm    LLMClient
	clinic ClinicInfo
	logger *logging.Logger
}

// ClinicInfo is the context injected into every system prompt.
type ClinicInfo struct {
	Name        string
	OpeningHour int
	ClosingHour int
	SlotMinutes int
	Specialties []string
}

// NewService creates the assistant service.
func NewService(llm LLMClient, clinic ClinicInfo, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{llm: llm, clinic: clinic, logger: logger}
}

// Chat answers the latest user message given prior turns. History beyond
// maxHistoryTurns is dropped from the front.
func (s *Service) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	if len(messages) > maxHistoryTurns {
		messages = messages[len(messages)-maxHistoryTurns:]
	}

	start := time.Now()
	answer, err := s.llm.Complete(ctx, s.systemPrompt(), messages)
	if err != nil {
		return "", err
	}
	s.logger.Info("assistant answered", "turns", len(messages),
		"duration_ms", time.Since(start).Milliseconds())
	return answer, nil
}

func (s *Service) systemPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the virtual receptionist for %s, a medical clinic.\n", s.clinic.Name)
	fmt.Fprintf(&b, "Appointments run in %d-minute slots between %02d:00 and %02d:00, Monday through Saturday.\n",
		s.clinic.SlotMinutes, s.clinic.OpeningHour, s.clinic.ClosingHour)
	b.WriteString("Appointments can be in-person or virtual; virtual visits include a Google Meet link.\n")
	if len(s.clinic.Specialties) > 0 {
		fmt.Fprintf(&b, "Available specialties: %s.\n", strings.Join(s.clinic.Specialties, ", "))
	}
	b.WriteString("Answer questions about booking, rescheduling and cancellation policies. ")
	b.WriteString("Never invent appointment details, give medical advice or discuss topics unrelated to the clinic.")
	return b.String()
}
