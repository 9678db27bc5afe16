// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package options holds the table of known options: for each option name,
// the kind of value it takes and the declarations it may appear on.
//
// The default table covers the options of protobuf's descriptor.proto and is
// embedded as YAML. Callers can load their own tables, for example to declare
// custom extension options, and merge them into the defaults.
package options
