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
	"gopkg.in/yaml.v3"

	"github.com/loramesh/meshsim/node"
	"github.com/loramesh/meshsim/units"
)

// yamlMessage is the on-disk shape of one UserMessage in a YAML message
// schedule: plain numbers and a target list, no scenario-generator concerns
// like topology or radio params.
type yamlMessage struct {
	Sender        int     `yaml:"sender"`
	Targets       []int   `yaml:"targets"`
	GenerateTime  float64 `yaml:"generate_time"`
	Size          int     `yaml:"size"`
	Emergency     bool    `yaml:"emergency"`
	RepeatCount   int     `yaml:"repeat_count"`
	RepeatSpacing float64 `yaml:"repeat_spacing"`
}

// ParseMessagesYAML decodes a message schedule from YAML: the narrowest
// surface of "scenario input" that still benefits from a real decoder rather
// than hand-rolled parsing, test fixtures use it to describe message
// schedules without depending on a full scenario-generator package.
func ParseMessagesYAML(data []byte) ([]UserMessage, error) {
	var raw []yamlMessage
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make([]UserMessage, len(raw))
	for i, m := range raw {
		targets := make([]node.Id, len(m.Targets))
		for j, t := range m.Targets {
			targets[j] = node.Id(t)
		}
		out[i] = UserMessage{
			Sender:        node.Id(m.Sender),
			Targets:       targets,
			GenerateTime:  units.Seconds(m.GenerateTime),
			Size:          m.Size,
			Emergency:     m.Emergency,
			RepeatCount:   m.RepeatCount,
			RepeatSpacing: units.Seconds(m.RepeatSpacing),
		}
	}
	return out, nil
}
