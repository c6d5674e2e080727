package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/socratic-labs/tutor/core/protocol"
)

// Load reads a guardrail pack from a YAML file. A missing file yields the
// built-in default pack so a fresh deployment is guarded out of the box.
func Load(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPack(), nil
		}
		return nil, fmt.Errorf("failed to read policy pack: %w", err)
	}

	var p Pack
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse policy pack: %w", err)
	}
	return &p, nil
}

// DefaultPack returns the built-in guardrails: refuse solution dumping and
// privileged-access requests, steer exam mode toward hints, and keep
// ready-made solutions out of responses.
func DefaultPack() *Pack {
	return &Pack{
		Version: "1",
		Rules: []Rule{
			{
				ID:    "block-privileged-access",
				Stage: StagePre,
				Match: Match{
					Regex: `(?i)\b(unrestricted|unlimited|full|root|admin)\b[^.\n]{0,30}\b(system access|shell access|admin access|root access|privileges)\b`,
				},
				Verdict: protocol.VerdictBlock,
				Reason:  "Requests for privileged or unrestricted access are not part of tutoring.",
			},
			{
				ID:    "block-solution-request",
				Stage: StagePre,
				Match: Match{
					Regex: `(?i)\b(write|implement|code|solve|complete|fill in|finish|generate|produce|give|provide|paste|spit out|send me)\b[^.\n\r]{0,50}\b(code|function|class|program|solution|implementation|script|method)s?\b|(?i)\b(share|post)\b[^.\n\r]{0,30}\b(code|full solution|entire)\b`,
				},
				Verdict: protocol.VerdictBlock,
				Reason:  "The tutor explains concepts and code but does not hand out finished solutions.",
			},
			{
				ID:    "rewrite-exam-answers",
				Stage: StagePre,
				Match: Match{
					Regex:   `(?i)\b(give|tell|show) me (all )?the answers?\b`,
					Intents: []protocol.Intent{protocol.IntentExamMode},
				},
				Verdict:     protocol.VerdictRewrite,
				Reason:      "Exam mode offers hints, not answer keys.",
				Replacement: "Quiz me and give me hints toward the answers instead of the answers themselves.",
			},
			{
				ID:    "block-solution-leak",
				Stage: StagePost,
				Match: Match{
					ContainsAny: []string{"here is the full solution", "complete implementation below"},
				},
				Verdict: protocol.VerdictBlock,
				Reason:  "The response contained a ready-made solution.",
			},
		},
	}
}
