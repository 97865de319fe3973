// Copyright 2025 Poiesic Systems
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


// Package ai defines the embedding-backend abstraction used throughout
// tastevec.
//
// The package is built around a single capability interface:
//
//   - Embedder: turn a batch of strings into a batch of fixed-dimension
//     vectors, one per input, order preserved.
//
// No caller ever knows which provider is active. Two interchangeable
// implementations exist:
//
//   - ai/openai: remote OpenAI-compatible embedding API (network-bound,
//     internal batching, retry on transient failures)
//   - ai/local: in-process deterministic embedder (no network)
//
// plus ai/mock, a test double with function-field behavior injection.
//
// Production constructors (openai.NewEmbedder, local.NewEmbedder) return
// the ai.Embedder INTERFACE to enforce abstraction; mock.NewMockEmbedder
// returns the CONCRETE type so tests can assert on call counts and
// inject behavior.
//
// A provider that returns a different number of vectors than requested
// is a fatal integration error: implementations must surface it as an
// error, never silently pad or truncate.
package ai
