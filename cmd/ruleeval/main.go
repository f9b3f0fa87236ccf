// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main evaluates the rules of a constraints file once and prints
// their verdicts.
//
// Exit status is 0 when every rule passes, 1 when at least one does not,
// and 2 when the input cannot be used.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
	"rulekeeper.dev/rulekeeper/internal/agentmeta"
	"rulekeeper.dev/rulekeeper/internal/config"
	"rulekeeper.dev/rulekeeper/internal/consts"
	"rulekeeper.dev/rulekeeper/internal/iso8601"
	"rulekeeper.dev/rulekeeper/internal/logging"
	"rulekeeper.dev/rulekeeper/internal/rules"
	"rulekeeper.dev/rulekeeper/internal/xmltree"
)

const (
	exitPassed   = 0
	exitFailed   = 1
	exitBadInput = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	rules      string
	config     string
	now        string
	output     string
	attrs      map[string]string
	params     map[string]string
	meta       map[string]string
	class      string
	provider   string
	agent      string
	agentMeta  string
	opName     string
	opInterval string
	step       string
	pattern    string
	subject    string
}

func newFlagSet(o *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("ruleeval", pflag.ContinueOnError)
	fs.StringVarP(&o.rules, "rules", "r", "-", "constraints file to evaluate, - for standard input")
	fs.StringVar(&o.config, "config", "", "rulekeeper configuration file")
	fs.StringVar(&o.now, "now", "", "evaluation time in ISO 8601 (default the current time)")
	fs.StringVarP(&o.output, "output", "o", "text", "output format, text, json or yaml")
	fs.String("timezone", "UTC", "location of times written without an offset")
	fs.String("log-level", "info", "minimum level of diagnostics written to standard error")
	fs.String("log-format", "text", "diagnostics format, text, json or stackdriver")

	fs.StringToStringVarP(&o.attrs, "attr", "a", nil, "node attribute name=value, repeatable")
	fs.StringToStringVar(&o.params, "param", nil, "resource parameter name=value, repeatable")
	fs.StringToStringVar(&o.meta, "meta", nil, "resource meta-attribute name=value, repeatable")
	fs.StringVar(&o.class, "class", "", "resource agent standard")
	fs.StringVar(&o.provider, "provider", "", "resource agent provider")
	fs.StringVar(&o.agent, "agent", "", "resource agent type")
	fs.StringVar(&o.agentMeta, "agent-metadata", "", "metadata file of the resource agent; report its version and private parameters")
	fs.StringVar(&o.opName, "op", "", "operation name")
	fs.StringVar(&o.opInterval, "interval", "0", "operation interval")
	fs.StringVar(&o.step, "step", "", "ISO 8601 duration; also evaluate at --now plus this duration")
	fs.StringVar(&o.pattern, "pattern", "", "regular expression whose groups replace %0 to %9 in attribute names")
	fs.StringVar(&o.subject, "subject", "", "text matched against --pattern")
	return fs
}

var configFlags = map[string]string{
	consts.RulesTimezone: "timezone",
	consts.LoggingLevel:  "log-level",
	consts.LoggingFormat: "log-format",
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	o := &options{}
	fs := newFlagSet(o)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return exitPassed
		}
		return exitBadInput
	}

	if err := evaluate(o, fs, stdin, stdout, stderr); err != nil {
		if err == errNotPassed {
			return exitFailed
		}
		fmt.Fprintf(stderr, "ruleeval: %v\n", err)
		return exitBadInput
	}
	return exitPassed
}

var errNotPassed = errors.New("not every rule passed")

func evaluate(o *options, fs *pflag.FlagSet, stdin io.Reader, stdout, stderr io.Writer) error {
	switch o.output {
	case "text", "json", "yaml":
	default:
		return errors.Errorf("unknown output format %q", o.output)
	}

	cfg, err := loadConfig(o.config)
	if err != nil {
		return err
	}
	if err = config.BindFlags(cfg, fs, configFlags); err != nil {
		return err
	}
	logrus.SetOutput(stderr)
	logging.ConfigureLogging(cfg)

	loc, err := time.LoadLocation(cfg.GetString(consts.RulesTimezone))
	if err != nil {
		return errors.Wrap(err, "invalid timezone")
	}
	input, err := newInput(o, loc)
	if err != nil {
		return err
	}
	var agent *agentReport
	if o.agentMeta != "" {
		if agent, err = describeAgent(o); err != nil {
			return err
		}
	}
	root, err := readRules(o.rules, stdin)
	if err != nil {
		return err
	}
	ruleNodes := rules.LoadRules(root)
	if len(ruleNodes) == 0 {
		return errors.Errorf("no %s elements in %s", rules.ElementRule, o.rules)
	}

	first, outcomes, err := evaluatePass(ruleNodes, input)
	if err != nil {
		return err
	}
	first.Agent = agent
	if o.step != "" {
		step, err := iso8601.ParseDuration(o.step)
		if err != nil {
			return errors.Wrap(err, "invalid --step")
		}
		later := *input
		var errs []error
		later.Now, errs = iso8601.AddDuration(input.Now, step)
		for _, e := range errs {
			logrus.WithError(e).Warn("Ignoring part of --step")
		}
		if first.Later, _, err = evaluatePass(ruleNodes, &later); err != nil {
			return err
		}
	}

	if err = report(stdout, o.output, first); err != nil {
		return err
	}
	for _, out := range outcomes {
		if !out.Result.Passed() {
			return errNotPassed
		}
	}
	return nil
}

func evaluatePass(ruleNodes []*xmltree.Node, input *rules.RuleInput) (*passReport, []rules.Outcome, error) {
	outcomes, next, err := rules.EvaluateRules(ruleNodes, input)
	if err != nil {
		return nil, nil, err
	}
	r := &passReport{Now: input.Now.String()}
	if !next.IsZero() {
		r.NextChange = next.String()
	}
	for _, o := range outcomes {
		r.Rules = append(r.Rules, ruleReport{ID: o.ID, Verdict: o.Result.String(), Passed: o.Result.Passed()})
	}
	return r, outcomes, nil
}

func loadConfig(path string) (config.Mutable, error) {
	if path == "" {
		return config.Defaults(), nil
	}
	return config.ReadFile(path)
}

func newInput(o *options, loc *time.Location) (*rules.RuleInput, error) {
	input := &rules.RuleInput{
		NodeAttrs:   o.attrs,
		RscStandard: o.class,
		RscProvider: o.provider,
		RscAgent:    o.agent,
		OpName:      o.opName,
		RscParams:   o.params,
		RscMeta:     o.meta,
	}

	if o.now == "" {
		input.Now = iso8601.Now(loc)
	} else {
		now, err := iso8601.Parse(o.now, loc)
		if err != nil {
			return nil, errors.Wrap(err, "invalid --now")
		}
		input.Now = now
	}

	interval, err := rules.ParseInterval(o.opInterval)
	if err != nil {
		return nil, errors.Wrap(err, "invalid --interval")
	}
	input.OpInterval = interval

	if o.pattern != "" {
		re, err := regexp.Compile(o.pattern)
		if err != nil {
			return nil, errors.Wrap(err, "invalid --pattern")
		}
		idx := re.FindStringSubmatchIndex(o.subject)
		if idx == nil {
			return nil, errors.Errorf("--subject %q does not match --pattern", o.subject)
		}
		input.Match = o.subject
		input.Submatches = idx
		input.NumMatches = len(idx) / 2
	}
	return input, nil
}

// describeAgent summarizes the metadata of the agent named by --class,
// --provider and --agent.
func describeAgent(o *options) (*agentReport, error) {
	if o.class == "" || o.agent == "" {
		return nil, errors.New("--agent-metadata needs --class and --agent")
	}
	raw, err := os.ReadFile(o.agentMeta)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read agent metadata")
	}
	key := agentmeta.Key{Class: o.class, Provider: o.provider, Type: o.agent}
	md, err := agentmeta.NewCache().Update(key, string(raw))
	if err != nil {
		return nil, err
	}

	r := &agentReport{
		Agent:          key.String(),
		Version:        md.Version,
		SupportsReload: md.Has(agentmeta.FlagSupportsReload),
	}
	for _, p := range md.Params {
		if p.Has(agentmeta.ParamPrivate) {
			r.PrivateParams = append(r.PrivateParams, p.Name)
		}
	}
	return r, nil
}

func readRules(path string, stdin io.Reader) (*xmltree.Node, error) {
	if path == "-" {
		return xmltree.Parse(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open rules")
	}
	defer f.Close()
	return xmltree.Parse(f)
}

type ruleReport struct {
	ID      string `json:"id" yaml:"id"`
	Verdict string `json:"verdict" yaml:"verdict"`
	Passed  bool   `json:"passed" yaml:"passed"`
}

type agentReport struct {
	Agent          string   `json:"agent" yaml:"agent"`
	Version        string   `json:"version" yaml:"version"`
	SupportsReload bool     `json:"supportsReload" yaml:"supportsReload"`
	PrivateParams  []string `json:"privateParams,omitempty" yaml:"privateParams,omitempty"`
}

type passReport struct {
	Now        string       `json:"now" yaml:"now"`
	NextChange string       `json:"nextChange,omitempty" yaml:"nextChange,omitempty"`
	Agent      *agentReport `json:"agent,omitempty" yaml:"agent,omitempty"`
	Rules      []ruleReport `json:"rules" yaml:"rules"`
	Later      *passReport  `json:"later,omitempty" yaml:"later,omitempty"`
}

func report(w io.Writer, format string, r *passReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		for ; r != nil; r = r.Later {
			if err := writeTable(w, r); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.Errorf("unknown output format %q", format)
}

func writeTable(w io.Writer, r *passReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RULE\tVERDICT\tPASSED")
	for _, rr := range r.Rules {
		fmt.Fprintf(tw, "%s\t%s\t%t\n", rr.ID, rr.Verdict, rr.Passed)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	next := r.NextChange
	if next == "" {
		next = "none"
	}
	if _, err := fmt.Fprintf(w, "\nevaluated at %s, next change %s\n", r.Now, next); err != nil {
		return err
	}
	if a := r.Agent; a != nil {
		private := "none"
		if len(a.PrivateParams) > 0 {
			private = strings.Join(a.PrivateParams, ", ")
		}
		if _, err := fmt.Fprintf(w, "agent %s version %s, reload %t, private parameters %s\n",
			a.Agent, a.Version, a.SupportsReload, private); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
