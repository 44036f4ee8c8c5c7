// Package device implements the device lifecycle for the PeluPrice
// backend.
//
// A device moves through a fixed set of statuses:
//
//	created → deployed → delivered → activated → working ⇄ offline
//
// driven by four operations:
//
//   - Register: a device phones home with its hardware ID and
//     activation key. Idempotent upsert; version metadata is
//     overwritten wholesale (absence included).
//   - Activate: a user claims a device by activation key. Exclusive;
//     exactly one caller wins, ownership never transfers afterwards.
//   - Heartbeat: periodic liveness report. Refreshes last_seen, forces
//     working/active, merges only the metadata fields present.
//   - SweepOffline: background bulk transition of stale active devices
//     to offline.
//
// # Concurrency
//
// Every transition is a single conditional SQL statement executed by
// the repository, so concurrent operations on the same device serialize
// inside SQLite and partial updates cannot be observed. The activation
// race is settled by "UPDATE ... WHERE owner_id IS NULL"; key collisions
// at registration are settled by the unique index on activation_key.
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db.DB)
//	manager := device.NewManager(repo, logger)
//
//	dev, err := manager.Register(ctx, device.RegisterInput{
//	    DeviceID:      "pp-0042",
//	    ActivationKey: "K-1234-5678",
//	})
//
//	sweeper := device.NewSweeper(manager, time.Minute, 30*time.Minute, logger)
//	go sweeper.Run(ctx)
package device
