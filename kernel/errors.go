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

package kernel

import (
	"github.com/pkg/errors"

	"github.com/loramesh/meshsim/node"
)

// NodeUpdateError reports an illegal radio-setting mutation: sf out of
// [7,12], coding rate < 4, or power above the node's configured max power
//.
type NodeUpdateError struct {
	cause error
}

func (e *NodeUpdateError) Error() string { return e.cause.Error() }
func (e *NodeUpdateError) Unwrap() error { return e.cause }

func newNodeUpdateError(format string, args ...interface{}) error {
	return &NodeUpdateError{cause: errors.Errorf(format, args...)}
}

// RadioBusyError is delivered to a node model's HandleError when a
// SendMessage is dispatched while the sender is still transmitting another
// packet; it is not fatal.
type RadioBusyError struct {
	Header  node.Header
	Content node.MessageContent
}

func (e *RadioBusyError) Error() string {
	return errors.Errorf("node %d: radio busy, dropped packet %s", e.Header.Sender, e.Header.Id).Error()
}
