// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package grandpa

import (
	"errors"
)

// ErrJustificationDecode is returned when the raw justification bytes cannot be decoded
var ErrJustificationDecode = errors.New("cannot decode justification")

// ErrInvalidSignature is returned when a precommit signature does not verify
var ErrInvalidSignature = errors.New("signature is not valid")

// ErrVoterNotFound is returned when a vote is cast by a voter that isn't in the voter set
var ErrVoterNotFound = errors.New("voter is not in voter set")

// ErrMinVotesNotMet is returned when a justification carries less than the threshold vote weight
var ErrMinVotesNotMet = errors.New("minimum number of votes not met")

// ErrEquivocation is returned in strict mode when one authority voted for two different targets
var ErrEquivocation = errors.New("vote is equivocatory")

// ErrUnrelatedVote is returned in strict mode when a precommit target is not
// a descendant of the commit target
var ErrUnrelatedVote = errors.New("precommit target is not a descendant of the commit target")

// ErrUnusedHeaders is returned in strict mode when votes ancestries contain
// headers that no vote needs
var ErrUnusedHeaders = errors.New("votes ancestries contain unused headers")

// ErrInvalidRound is returned when a justification is offered for a different round
var ErrInvalidRound = errors.New("justification is for a different round")

// ErrEmptyVoterSet is returned when constructing a voter set without voters
var ErrEmptyVoterSet = errors.New("voter set is empty")
