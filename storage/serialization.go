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


package storage

import (
	"github.com/poiesic/tastevec/core"
)

// MarshalMovieRecord serializes a MovieRecord to bytes.
func MarshalMovieRecord(record *core.MovieRecord) []byte {
	buf := make([]byte, core.MovieRecordMUS.Size(*record))
	core.MovieRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalMovieRecord deserializes a MovieRecord from bytes.
func UnmarshalMovieRecord(data []byte) (*core.MovieRecord, error) {
	record, _, err := core.MovieRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalUserVector serializes a UserVector to bytes.
func MarshalUserVector(vector *core.UserVector) []byte {
	buf := make([]byte, core.UserVectorMUS.Size(*vector))
	core.UserVectorMUS.Marshal(*vector, buf)
	return buf
}

// UnmarshalUserVector deserializes a UserVector from bytes.
func UnmarshalUserVector(data []byte) (*core.UserVector, error) {
	vector, _, err := core.UserVectorMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &vector, nil
}

// MarshalUserState serializes a UserState to bytes.
func MarshalUserState(state *core.UserState) []byte {
	buf := make([]byte, core.UserStateMUS.Size(*state))
	core.UserStateMUS.Marshal(*state, buf)
	return buf
}

// UnmarshalUserState deserializes a UserState from bytes.
func UnmarshalUserState(data []byte) (*core.UserState, error) {
	state, _, err := core.UserStateMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &state, nil
}
