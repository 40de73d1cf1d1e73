// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the offline sync engine that an application
// embeds.
//
// [Engine] is the dependency-injection context: it owns the durable store,
// the sync queue, the cache, the conflict resolver, the connectivity monitor
// and the background workers, and it exposes the operations the embedding
// application calls. There are no package-level singletons; every Engine is
// independent.
//
// Lifecycle:
//
//	engine, err := client.NewEngine(ctx, cfg, logger)
//	if err != nil { ... }
//	if err = engine.Init(ctx); err != nil { ... }
//	defer engine.Destroy()
//
//	task, err := engine.QueueAction(ctx, models.Action{Type: models.TaskCreate, Key: "note-1", Payload: data})
package client
