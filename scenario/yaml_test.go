// Copyright (c) 2020-2024, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loramesh/meshsim/node"
	"github.com/loramesh/meshsim/units"
)

func TestParseMessagesYAML(t *testing.T) {
	data := []byte(`
- sender: 0
  targets: [1, 2]
  generate_time: 0
  size: 16
  emergency: true
- sender: 1
  targets: [2]
  generate_time: 30
  size: 8
  repeat_count: 2
  repeat_spacing: 60
`)

	msgs, err := ParseMessagesYAML(data)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, node.Id(0), msgs[0].Sender)
	assert.Equal(t, []node.Id{1, 2}, msgs[0].Targets)
	assert.Equal(t, units.Seconds(0), msgs[0].GenerateTime)
	assert.Equal(t, 16, msgs[0].Size)
	assert.True(t, msgs[0].Emergency)

	assert.Equal(t, node.Id(1), msgs[1].Sender)
	assert.Equal(t, 2, msgs[1].RepeatCount)
	assert.Equal(t, units.Seconds(60), msgs[1].RepeatSpacing)
}

func TestParseMessagesYAMLRejectsMalformedInput(t *testing.T) {
	_, err := ParseMessagesYAML([]byte("not: [valid"))
	assert.Error(t, err)
}
