// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHexToHash(t *testing.T) {
	in := "0x8550326cee1e7b841f716ed6ed4a778fcd48de3950ca2b22b102a646bd3eb909"
	h, err := HexToHash(in)
	require.NoError(t, err)
	require.Equal(t, in, h.String())

	_, err = HexToHash("8550326cee1e7b84")
	require.Error(t, err)

	_, err = HexToHash("0x8550326cee1e7b84")
	require.ErrorIs(t, err, ErrInvalidHashLength)
}

func TestBlake2bHash(t *testing.T) {
	h, err := Blake2bHash([]byte("helloworld"))
	require.NoError(t, err)
	require.False(t, h.IsEmpty())
	require.Equal(t, h, MustBlake2bHash([]byte("helloworld")))

	other := MustBlake2bHash([]byte("goodbyeworld"))
	require.NotEqual(t, h, other)
}
