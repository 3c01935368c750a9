// Copyright (c) 2026 ccprobe Team
// ccprobe - session bootstrap and crypto context probe
// This source code is licensed under the MIT license found in the LICENSE file.
package client

import "context"

// Stage records how far a Bootstrap run progressed.
type Stage int

const (
	StageNotStarted Stage = iota
	StageSessionObtained
	StageContextObtained
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageNotStarted:
		return "not started"
	case StageSessionObtained:
		return "session obtained"
	case StageContextObtained:
		return "context obtained"
	case StageFailed:
		return "failed"
	}
	return "unknown"
}

// Result pairs a session with the crypto context it produced.
type Result struct {
	SessionID     string
	CryptoContext CryptoContext
	Stage         Stage
}

// Bootstrap registers and then fetches the crypto context for the new
// session. The second call is never attempted if the first fails. On failure
// the returned Result keeps whatever was obtained before the error.
func (c *Client) Bootstrap(ctx context.Context) (Result, error) {
	res := Result{Stage: StageNotStarted}

	id, err := c.Register(ctx)
	if err != nil {
		res.Stage = StageFailed
		return res, err
	}
	res.SessionID = id
	res.Stage = StageSessionObtained

	cc, err := c.GetCryptoContext(ctx, id)
	if err != nil {
		res.Stage = StageFailed
		return res, err
	}
	res.CryptoContext = cc
	res.Stage = StageContextObtained
	return res, nil
}
