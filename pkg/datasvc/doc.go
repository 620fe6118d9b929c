// Package datasvc is a Redis-backed data service for training provenance.
//
// # Overview
//
// Records are titled JSON metadata documents grouped into collections. A record
// may carry one uploaded file (model weights, a notebook, a dataset file) and a
// list of derived-from dependencies on other records. Together the dependencies
// form the provenance graph linking checkpoints to the notebook that produced
// them, the checkpoint before them, and the datasets they were trained on.
//
// Records are never deleted. A newer checkpoint supersedes an older one by
// depending on it.
//
// # Usage Example
//
//	client, err := datasvc.NewClient(&redis.Options{Addr: "localhost:6379"}, "mnist")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	id, err := client.CreateRecord(ctx, "runs", "epoch-1", metadata,
//		datasvc.DerivedFrom(notebookID, datasetID))
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = client.UploadFile(ctx, id, "checkpoints/epoch-1.zst")
//
// # Redis Schema
//
// All keys follow the pattern: flowlog:{namespace}:{entity}:{id}
//
// Records: flowlog:{namespace}:record:{record_id} (hash)
// Files: flowlog:{namespace}:file:{record_id} (string)
// Reverse dependencies: flowlog:{namespace}:derived:{record_id} (set)
// Collections: flowlog:{namespace}:collection:{collection} (zset by created_at_ms)
// Title index: flowlog:{namespace}:collection:{collection}:titles (hash title -> id)
//
// Pub/Sub channel: flowlog:{namespace}:record_events
//
// Transient network failures are retried with exponential backoff; a missing
// key (redis.Nil) is reported immediately and checked with IsNotFound.
package datasvc
