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


// Package corpus discovers blog posts on disk and turns them into
// embeddable prose.
//
// The Loader walks a corpus root, keeps every .mdx file in walk order and
// produces a core.DocumentRecord plus the normalized text for each one.
// Titles come from the YAML front matter via ParseTitle; anything missing or
// malformed falls back to core.UntitledTitle without failing the run.
//
// Normalize strips front matter, code, images, link targets, heading markers
// and MDX import/export lines so that only prose is sent to the embedder.
//
// # Error Policy
//
// An unreadable document (permission error, invalid UTF-8) is governed by
// ErrorPolicy. ErrorPolicyFail, the default, aborts the load. ErrorPolicySkip
// logs a warning and leaves the document out of the index. An inaccessible
// corpus root always fails.
package corpus
