package mdp

import (
	"encoding/json"
	"sort"
	"strings"
)

// isMMIRequest reports whether name names a management service, which the
// broker must answer itself and never forward to a worker.
func isMMIRequest(name string) bool {
	return strings.HasPrefix(name, MMINamespace)
}

// handleMMI answers a management request entirely in-process and returns
// the reply body to send back to the client.
func (b *Broker) handleMMI(name string, request []string) []string {
	switch name {
	case MMIService:
		if len(request) < 1 || request[0] == "" {
			return []string{MMICodeNotFound}
		}
		if _, ok := b.services[request[0]]; ok {
			return []string{MMICodeOK}
		}
		return []string{MMICodeNotFound}

	case MMIServices:
		names := make([]string, 0, len(b.services))
		for name := range b.services {
			names = append(names, name)
		}
		sort.Strings(names)
		payload, _ := json.Marshal(struct {
			Services []string `json:"services"`
		}{Services: names})
		return []string{string(payload)}

	case MMIWorkers:
		identities := make([]string, 0, len(b.workers))
		for identity := range b.workers {
			identities = append(identities, identity)
		}
		sort.Strings(identities)
		payload, _ := json.Marshal(struct {
			Workers []string `json:"workers"`
		}{Workers: identities})
		return []string{string(payload)}

	default:
		return []string{MMICodeNotImplemented}
	}
}
