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

package xmltree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `<?xml version="1.0"?>
<constraints>
  <rule id="r1" boolean-op="or">
    <date_expression id="d1" operation="gt" start="2024-01-01"/>
    <expression id="e1" attribute="#uname" operation="eq" value="node1"/>
    <date_expression id="d2" operation="date_spec">
      <date_spec id="s1" hours="9-16"/>
    </date_expression>
  </rule>
  <rule id="r2"/>
  <version> 1.1 </version>
</constraints>`

func TestParse(t *testing.T) {
	require := require.New(t)
	root, err := ParseString(doc)
	require.NoError(err)
	require.Equal("constraints", root.Name)
	require.Nil(root.Parent())
	require.Len(root.Children(), 3)

	r1 := root.FirstChild("rule")
	require.Equal("r1", r1.ID())
	require.Equal("or", r1.AttrOr("boolean-op", "and"))
	require.Equal("and", r1.AttrOr("missing", "and"))
	require.Equal(root, r1.Parent())

	r2 := r1.NextSame()
	require.Equal("r2", r2.ID())
	require.Nil(r2.NextSame())

	d1 := r1.FirstChild("date_expression")
	require.Equal("d1", d1.ID())
	d2 := d1.NextSame()
	require.Equal("d2", d2.ID())
	require.Equal("s1", d2.FirstChild("date_spec").ID())

	require.Equal("date_expression", r1.FirstChild("").Name)
	require.Equal("1.1", root.FirstChild("version").Content())

	v, ok := d1.Attr("start")
	require.True(ok)
	require.Equal("2024-01-01", v)
	_, ok = d1.Attr("end")
	require.False(ok)
	require.Equal([]Attr{{"id", "d1"}, {"operation", "gt"}, {"start", "2024-01-01"}}, d1.Attrs())
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"not xml",
		"<a><b></a>",
		"<a/><b/>",
	} {
		_, err := ParseString(in)
		assert.Error(t, err, in)
	}
}

func TestNilNode(t *testing.T) {
	assert := assert.New(t)
	var n *Node
	assert.False(n.Is("rule"))
	assert.Equal("", n.ID())
	assert.Nil(n.FirstChild("rule"))
	assert.Nil(n.NextSame())
	assert.Nil(n.Parent())
	assert.Nil(n.Children())
	assert.Nil(n.Attrs())
	assert.Equal("", n.Content())
	_, ok := n.Attr("id")
	assert.False(ok)
}

func TestBuilder(t *testing.T) {
	assert := assert.New(t)
	parent := New("date_expression", "id", "expr", "operation")
	child := New("date_spec", "years", "2024")
	parent.Append(child, New("duration", "id", "dur"))

	assert.Equal("expr", parent.ID())
	_, ok := parent.Attr("operation")
	assert.False(ok, "unpaired attribute name is ignored")
	assert.Equal(parent, child.Parent())
	assert.Equal("dur", parent.FirstChild("duration").ID())
}

func TestLoggableParentID(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("implied", LoggableParentID(nil))
	assert.Equal("implied", LoggableParentID(New("date_spec")))

	child := New("date_spec")
	New("date_expression", "id", "expr").Append(child)
	assert.Equal("expr", LoggableParentID(child))

	orphan := New("date_spec")
	New("date_expression").Append(orphan)
	assert.Equal("without ID", LoggableParentID(orphan))
}
