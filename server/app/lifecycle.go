// Copyright 2025 Zintix Labs
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

package app

import (
	"context"
	"sync"
)

// Component is anything with a blocking Run and a graceful Shutdown: the
// HTTP server, the machine runtime, the history store.
//   - Run blocks until the component stops.
//   - Shutdown should respect the ctx deadline.
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}

// Closer adapts a resource that only needs closing at shutdown. Its Run
// blocks until Shutdown is called.
type Closer struct {
	name  string
	close func() error
	done  chan struct{}
	once  sync.Once
}

func NewCloser(name string, close func() error) *Closer {
	return &Closer{name: name, close: close, done: make(chan struct{})}
}

func (c *Closer) Name() string { return c.name }

func (c *Closer) Run() error {
	<-c.done
	return nil
}

func (c *Closer) Shutdown(context.Context) (err error) {
	c.once.Do(func() {
		close(c.done)
		if c.close != nil {
			err = c.close()
		}
	})
	return err
}
