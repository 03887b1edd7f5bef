// Package identity composes the system-prompt preamble for local backends.
//
// Small local models, absent a name, self-identify as their base family.
// The preamble is the minimum intervention that suppresses this. It is
// built once at wrapper construction from up to three optional workspace
// files and never sent to the cloud backend.
package identity

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/relay-ai/relay/internal/config"
	"github.com/relay-ai/relay/internal/logging"
)

const (
	maxDirectives   = 4
	maxDirectiveLen = 80
)

// modelFamilies are the base-model names the preamble disclaims.
var modelFamilies = []string{"Gemma", "Llama", "Qwen", "Mistral", "GPT", "Claude"}

var (
	labelRe = regexp.MustCompile(`\*\*([^*:]+):\*\*\s*(.+)`)
	boldRe  = regexp.MustCompile(`\*\*([^*]+)\*\*`)
)

// Profile holds the fields extracted from the workspace files.
type Profile struct {
	Name       string
	FullName   string
	Vibe       string
	User       string
	Directives []string
}

// Load reads the three workspace files. Each file is optional; missing
// files are non-fatal and leave the corresponding fields empty.
func Load(cfg config.IdentityConfig, log *logging.Logger) *Profile {
	p := &Profile{}

	if labels, ok := readLabels(filepath.Join(cfg.WorkspaceDir, cfg.IdentityFile), log); ok {
		p.Name = labels["name"]
		p.FullName = labels["full name"]
		p.Vibe = labels["vibe"]
	}

	p.Directives = readDirectives(filepath.Join(cfg.WorkspaceDir, cfg.PersonalityFile), log)

	if labels, ok := readLabels(filepath.Join(cfg.WorkspaceDir, cfg.UserFile), log); ok {
		p.User = labels["what to call them"]
		if p.User == "" {
			p.User = labels["name"]
		}
	}

	return p
}

// readLabels extracts **Label:** value lines, keyed by lowercased label.
func readLabels(path string, log *logging.Logger) (map[string]string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Debugf("identity file %s not read: %v", path, err)
		return nil, false
	}

	labels := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if m := labelRe.FindStringSubmatch(line); m != nil {
			key := strings.ToLower(strings.TrimSpace(m[1]))
			labels[key] = strings.TrimSpace(m[2])
		}
	}
	return labels, true
}

// readDirectives extracts up to four short bolded directives.
func readDirectives(path string, log *logging.Logger) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Debugf("personality file %s not read: %v", path, err)
		return nil
	}

	var out []string
	for _, m := range boldRe.FindAllStringSubmatch(string(data), -1) {
		d := strings.TrimSpace(m[1])
		if d == "" || len(d) >= maxDirectiveLen {
			continue
		}
		// Label lines (**Label:** value) are not directives.
		if strings.HasSuffix(d, ":") {
			continue
		}
		out = append(out, strings.TrimSuffix(d, "."))
		if len(out) == maxDirectives {
			break
		}
	}
	return out
}

// Preamble composes the local-backend identity preamble. Missing fields
// degrade gracefully; with no name at all the generic assistant line is
// used.
func (p *Profile) Preamble() string {
	var sb strings.Builder

	if p.Name != "" {
		sb.WriteString("You are ")
		sb.WriteString(p.Name)
		if p.FullName != "" {
			sb.WriteString(" (")
			sb.WriteString(p.FullName)
			sb.WriteString(")")
		}
		sb.WriteString(", a helpful AI assistant.")
	} else {
		sb.WriteString("You are a helpful AI assistant.")
	}

	if p.User != "" {
		sb.WriteString(" You are assisting ")
		sb.WriteString(p.User)
		sb.WriteString(".")
	}
	if p.Vibe != "" {
		sb.WriteString(" Your vibe: ")
		sb.WriteString(p.Vibe)
		if !strings.HasSuffix(p.Vibe, ".") {
			sb.WriteString(".")
		}
	}
	for _, d := range p.Directives {
		sb.WriteString(" ")
		sb.WriteString(d)
		sb.WriteString(".")
	}

	sb.WriteString(" Never say you are ")
	sb.WriteString(strings.Join(modelFamilies[:len(modelFamilies)-1], ", "))
	sb.WriteString(", or ")
	sb.WriteString(modelFamilies[len(modelFamilies)-1])
	sb.WriteString(", or any other model.")

	if p.Name != "" {
		sb.WriteString(" You are only ")
		sb.WriteString(p.Name)
		sb.WriteString(".")
	}

	return sb.String()
}
