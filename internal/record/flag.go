// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package record

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/taibuivan/noriva/internal/platform/cache"
	"github.com/taibuivan/noriva/internal/platform/constants"
)

// # Change-Flags
//
// A change-flag marks that a principal's security-relevant fields were
// mutated. It is written on every such mutation and read by sessions on
// extend — lazy pull invalidation rather than a push channel. The flag is
// never cleared explicitly: every outstanding session of the principal must
// be able to observe it, so only the TTL retires it.

// ChangeFlagKey builds the cache key "<kind>-changed-<id>".
func ChangeFlagKey(kind, id string) string {
	return fmt.Sprintf("%s-changed-%s", strings.ToLower(kind), id)
}

/*
MarkChanged raises the change-flag for a principal.

Parameters:
  - context: context.Context
  - kv: The cache client.
  - kind: The principal's kind name.
  - id: The principal's id.

Returns:
  - error: apperr.CouldNotConnect on cache failure
*/
func MarkChanged(context context.Context, kv *cache.Cache, kind, id string) error {
	value := time.Now().UTC().Format(time.RFC3339)
	return kv.Set(context, ChangeFlagKey(kind, id), value, constants.ChangeFlagTTL)
}

/*
WasChanged reads the change-flag for a principal.

Returns:
  - bool: Whether the flag is currently set
  - error: apperr.CouldNotConnect on cache failure
*/
func WasChanged(context context.Context, kv *cache.Cache, kind, id string) (bool, error) {
	_, found, err := kv.Get(context, ChangeFlagKey(kind, id))
	return found, err
}
