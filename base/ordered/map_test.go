// Copyright 2025 Google LLC
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

package ordered_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/kernelgrad/base/ordered"
)

type entry struct {
	k string
	v int
}

func TestMap(t *testing.T) {
	tests := []struct {
		entries []entry
		want    []entry
	}{
		{
			entries: []entry{
				{k: "a", v: 1},
				{k: "b", v: 2},
				{k: "c", v: 3},
			},
			want: []entry{
				{k: "a", v: 1},
				{k: "b", v: 2},
				{k: "c", v: 3},
			},
		},
		{
			entries: []entry{
				{k: "a", v: 1},
				{k: "b", v: 2},
				{k: "a", v: 3},
			},
			want: []entry{
				{k: "a", v: 3},
				{k: "b", v: 2},
			},
		},
	}
	for ti, test := range tests {
		m := ordered.NewMap[string, int]()
		for _, entry := range test.entries {
			m.Store(entry.k, entry.v)
		}
		if m.Size() != len(test.want) {
			t.Errorf("test %d: map has %d entries but want %d", ti, m.Size(), len(test.want))
			continue
		}
		var got []entry
		for k, v := range m.Iter() {
			got = append(got, entry{k: k, v: v})
		}
		if diff := cmp.Diff(test.want, got, cmp.AllowUnexported(entry{})); diff != "" {
			t.Errorf("test %d: unexpected entries (-want +got):\n%s", ti, diff)
		}
		var keys []string
		for k := range m.Keys() {
			keys = append(keys, k)
		}
		if len(keys) != len(test.want) {
			t.Errorf("test %d: got %d keys but want %d", ti, len(keys), len(test.want))
		}
	}
}

func TestLoadOrCompute(t *testing.T) {
	m := ordered.NewMap[string, int]()
	calls := 0
	compute := func() int {
		calls++
		return 42
	}
	v, loaded := m.LoadOrCompute("a", compute)
	if v != 42 || loaded {
		t.Errorf("first call: got (%d, %v) but want (42, false)", v, loaded)
	}
	v, loaded = m.LoadOrCompute("a", compute)
	if v != 42 || !loaded {
		t.Errorf("second call: got (%d, %v) but want (42, true)", v, loaded)
	}
	if calls != 1 {
		t.Errorf("compute called %d times but want 1", calls)
	}
}
