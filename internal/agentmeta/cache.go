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

// Package agentmeta caches the capabilities and parameters that resource
// agents advertise in their metadata.
package agentmeta

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"rulekeeper.dev/rulekeeper/internal/version"
	"rulekeeper.dev/rulekeeper/internal/xmltree"
)

var (
	logger = logrus.WithFields(logrus.Fields{
		"app":       "rulekeeper",
		"component": "agentmeta",
	})
)

const (
	// DefaultVersion is used when an agent's metadata has no usable version.
	DefaultVersion = "0.1"

	classOCF = "ocf"

	// Agents advertising this OCF version or later may not work properly.
	unsupportedOCFVersion = "2"
)

// Names treated as private when an agent marks no parameter private.
var implicitlyPrivate = map[string]bool{
	"password": true,
	"passwd":   true,
	"user":     true,
}

// Key identifies a resource agent.
type Key struct {
	Class    string
	Provider string
	Type     string
}

func (k Key) String() string {
	if k.Provider == "" {
		return k.Class + ":" + k.Type
	}
	return k.Class + ":" + k.Provider + ":" + k.Type
}

// Flag is a capability of a resource agent.
type Flag uint32

// Agent flags.
const (
	FlagSupportsReload Flag = 1 << iota
)

// ParamFlag is a property of an agent parameter.
type ParamFlag uint32

// Parameter flags.
const (
	ParamUnique ParamFlag = 1 << iota
	ParamPrivate
)

// Param is one parameter an agent accepts.
type Param struct {
	Name  string
	Flags ParamFlag
}

// Has reports whether every flag in f is set.
func (p Param) Has(f ParamFlag) bool {
	return p.Flags&f == f
}

// Metadata is what the cache records for an agent.
type Metadata struct {
	Version string
	Flags   Flag
	// Params are in document order.
	Params []Param
}

// Has reports whether every flag in f is set.
func (m *Metadata) Has(f Flag) bool {
	return m.Flags&f == f
}

// Cache maps agents to their metadata.  It is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]*Metadata
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[Key]*Metadata)}
}

// Len returns the number of cached agents.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset removes every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	logger.WithField("entries", len(c.entries)).Trace("Resetting metadata cache")
	c.entries = make(map[Key]*Metadata)
}

// Destroy releases the cache.  It must not be used afterwards.
func (c *Cache) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	logger.WithField("entries", len(c.entries)).Trace("Destroying metadata cache")
	c.entries = nil
}

// Get returns the cached metadata for key.
func (c *Cache) Get(key Key) (*Metadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	md, ok := c.entries[key]
	return md, ok
}

// Update parses raw agent metadata and replaces the entry for key.  The
// cache is unchanged when raw cannot be parsed.
func (c *Cache) Update(key Key, raw string) (*Metadata, error) {
	md, err := parseMetadata(key, raw)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		return nil, errors.New("metadata cache has been destroyed")
	}
	c.entries[key] = md
	return md, nil
}

func parseMetadata(key Key, raw string) (*Metadata, error) {
	root, err := xmltree.ParseString(raw)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"agent": key.String(),
			"error": err.Error(),
		}).Error("Metadata is not valid XML")
		return nil, errors.Wrapf(err, "metadata for %s is not valid XML", key)
	}

	md := &Metadata{Version: versionFromXML(key, root)}
	if key.Class == classOCF {
		checkOCFVersion(key, root.FirstChild("version"))
	}

	actions := root.FirstChild("actions")
	for a := actions.FirstChild("action"); a != nil; a = a.NextSame() {
		if strings.EqualFold(a.AttrOr("name", ""), "reload") {
			md.Flags |= FlagSupportsReload
			break
		}
	}

	anyPrivate := false
	params := root.FirstChild("parameters")
	for p := params.FirstChild("parameter"); p != nil; p = p.NextSame() {
		name, ok := p.Attr("name")
		if !ok {
			logger.WithField("agent", key.String()).Warn("Metadata has parameter without a name")
			continue
		}
		param := Param{Name: name}
		if isTrue(p.AttrOr("unique", "")) {
			param.Flags |= ParamUnique
		}
		if isTrue(p.AttrOr("private", "")) {
			param.Flags |= ParamPrivate
			anyPrivate = true
		}
		md.Params = append(md.Params, param)
	}

	if !anyPrivate {
		for i := range md.Params {
			if implicitlyPrivate[md.Params[i].Name] {
				md.Params[i].Flags |= ParamPrivate
			}
		}
	}
	return md, nil
}

func versionFromXML(key Key, root *xmltree.Node) string {
	fields := logrus.Fields{"agent": key.String()}
	v, ok := root.Attr("version")
	switch {
	case !ok:
		logger.WithFields(fields).Debug("Metadata does not specify a version")
		return DefaultVersion
	case !version.ValidFormat(v):
		fields["version"] = v
		logger.WithFields(fields).Info("Metadata version has unrecognized format")
		return DefaultVersion
	}
	fields["version"] = v
	logger.WithFields(fields).Debug("Metadata has version")
	return v
}

func checkOCFVersion(key Key, node *xmltree.Node) {
	if node == nil {
		logger.WithField("agent", key.String()).Warn("Agent does not advertise OCF version supported")
		return
	}
	v := node.Content()
	fields := logrus.Fields{"agent": key.String(), "ocfVersion": v}
	if version.Compare(v, unsupportedOCFVersion) >= 0 {
		logger.WithFields(fields).Warnf("%s supports OCF version %s and we don't (agent may not work properly)", key, v)
		return
	}
	logger.WithFields(fields).Debugf("%s advertises support for OCF version %s", key, v)
}

func isTrue(s string) bool {
	switch strings.ToLower(s) {
	case "true", "on", "yes", "y", "1":
		return true
	}
	return false
}
