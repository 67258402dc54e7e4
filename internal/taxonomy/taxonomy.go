// Package taxonomy groups raw (name, port) observations into protocol
// matches and expands their declarative command templates into concrete
// subprocess command lines, per §4.2 of SPEC_FULL.md.
package taxonomy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParsedService is a single (name, port) observation produced by the
// port-scan parser. It is a value type: equality is by (Name, Port), so it
// can be used directly as a map key to model a mathematical set.
type ParsedService struct {
	Name string
	Port int
}

// ScanTemplate is one (scan id, command template) pair declared for a
// protocol.
type ScanTemplate struct {
	ID       string
	Template string
}

// ProtocolRule is one `[[protocol]]` entry loaded from service-scans.toml.
// Immutable once loaded.
type ProtocolRule struct {
	Protocol         string
	ServiceNames     []string
	Scans            []ScanTemplate
	Recommendations  []string
}

// DetectedService is all of a target's ports matched to one protocol, built
// by Join.
type DetectedService struct {
	Protocol        string
	Target          string
	Ports           []int
	Scans           []ScanTemplate
	Recommendations []string
}

// PortStr renders the detected service's ports as a comma-joined list, e.g.
// "80,8080".
func (d DetectedService) PortStr() string {
	return portStr(d.Ports)
}

// Join partitions services into detected protocol matches, following rule
// order, and returns whatever remains unmatched. The input order of
// services is preserved in the returned residual slice. Each ProtocolRule's
// ServiceNames consumes any remaining candidates with a matching Name; a
// service already consumed by an earlier rule cannot match a later one.
func Join(target string, services []ParsedService, rules []ProtocolRule) (residual []ParsedService, detected []DetectedService) {
	consumed := make(map[ParsedService]bool, len(services))

	for _, rule := range rules {
		names := make(map[string]bool, len(rule.ServiceNames))
		for _, n := range rule.ServiceNames {
			names[n] = true
		}

		var portSet []int
		seen := make(map[int]bool)
		matchedAny := false
		for _, s := range services {
			if consumed[s] || !names[s.Name] {
				continue
			}
			matchedAny = true
			consumed[s] = true
			if !seen[s.Port] {
				seen[s.Port] = true
				portSet = append(portSet, s.Port)
			}
		}
		if !matchedAny {
			continue
		}
		sort.Ints(portSet)
		detected = append(detected, DetectedService{
			Protocol:        rule.Protocol,
			Target:          target,
			Ports:           portSet,
			Scans:           rule.Scans,
			Recommendations: rule.Recommendations,
		})
	}

	for _, s := range services {
		if !consumed[s] {
			residual = append(residual, s)
		}
	}
	return residual, detected
}

// TemplateContext supplies the values and filesystem probe a DetectedService
// needs to expand its templates into concrete commands.
type TemplateContext struct {
	WordList string
	UserList string
	PassList string

	// Exists reports whether the given target-relative path (e.g.
	// "services/http.nmap-scripts") already exists. Used only to
	// disambiguate port-less output files (§4.2). A nil Exists is
	// treated as "nothing exists yet".
	Exists func(path string) bool
}

func (c TemplateContext) exists(path string) bool {
	if c.Exists == nil {
		return false
	}
	return c.Exists(path)
}

// CmdPlan is one concrete, fully-templated command ready to execute, along
// with the target-relative output file path it is expected to produce.
type CmdPlan struct {
	Cmd        string
	OutputFile string
}

// BuildScans expands every (scanId, template) pair declared on d into one or
// more CmdPlans, per the cardinality rules in §4.2.
func (d DetectedService) BuildScans(ctx TemplateContext) []CmdPlan {
	var plans []CmdPlan
	for _, st := range d.Scans {
		plans = append(plans, fillTemplate(d.Target, d.Protocol, d.Ports, st.ID, st.Template, ctx)...)
	}
	return plans
}

// BuildRecommendations expands d's recommendation templates into fully
// substituted command lines, in declared order. Each recommendation is
// assigned a synthetic scan id ("rec0", "rec1", ...) purely for <fout>
// naming purposes; recommendations are never executed.
func (d DetectedService) BuildRecommendations(ctx TemplateContext) []string {
	var lines []string
	for i, tmpl := range d.Recommendations {
		scanID := "rec" + strconv.Itoa(i)
		for _, plan := range fillTemplate(d.Target, d.Protocol, d.Ports, scanID, tmpl, ctx) {
			lines = append(lines, plan.Cmd)
		}
	}
	return lines
}

func fillTemplate(target, protocol string, ports []int, scanID, template string, ctx TemplateContext) []CmdPlan {
	cmd := template
	cmd = strings.ReplaceAll(cmd, "<target>", target)
	cmd = strings.ReplaceAll(cmd, "<wordlist>", ctx.WordList)
	cmd = strings.ReplaceAll(cmd, "<userlist>", ctx.UserList)
	cmd = strings.ReplaceAll(cmd, "<passlist>", ctx.PassList)

	switch {
	case strings.Contains(cmd, "<ports>"):
		fout := fmt.Sprintf("services/%s.%s.%s", protocol, portsDotted(ports), scanID)
		rendered := strings.ReplaceAll(cmd, "<fout>", fout)
		rendered = strings.ReplaceAll(rendered, "<ports>", portStr(ports))
		return []CmdPlan{{Cmd: rendered, OutputFile: fout}}
	case strings.Contains(cmd, "<port>"):
		plans := make([]CmdPlan, 0, len(ports))
		for _, p := range ports {
			fout := fmt.Sprintf("services/%s.%d.%s", protocol, p, scanID)
			rendered := strings.ReplaceAll(cmd, "<fout>", fout)
			rendered = strings.ReplaceAll(rendered, "<port>", strconv.Itoa(p))
			plans = append(plans, CmdPlan{Cmd: rendered, OutputFile: fout})
		}
		return plans
	default:
		fout := uniquePortlessFile(protocol, scanID, ctx)
		rendered := strings.ReplaceAll(cmd, "<fout>", fout)
		return []CmdPlan{{Cmd: rendered, OutputFile: fout}}
	}
}

func uniquePortlessFile(protocol, scanID string, ctx TemplateContext) string {
	base := fmt.Sprintf("services/%s.%s", protocol, scanID)
	if !ctx.exists(base) {
		return base
	}
	for i := 0; ; i++ {
		cand := fmt.Sprintf("services/%s.%d.%s", protocol, i, scanID)
		if !ctx.exists(cand) {
			return cand
		}
	}
}

func portsDotted(ports []int) string {
	strs := make([]string, len(ports))
	for i, p := range ports {
		strs[i] = strconv.Itoa(p)
	}
	return strings.Join(strs, ".")
}

func portStr(ports []int) string {
	strs := make([]string, len(ports))
	for i, p := range ports {
		strs[i] = strconv.Itoa(p)
	}
	return strings.Join(strs, ",")
}
