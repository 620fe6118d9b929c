package datasvc

import "fmt"

// Redis key pattern helpers
//
// All keys and channels are namespaced so several projects can share one
// Redis server.
//
// Key pattern: flowlog:{namespace}:{entity}:{id}
// Channel pattern: flowlog:{namespace}:{event_type}_events

// RecordKey returns the Redis key for a record hash.
// Pattern: flowlog:{namespace}:record:{record_id}
func RecordKey(namespace, recordID string) string {
	return fmt.Sprintf("flowlog:%s:record:%s", namespace, recordID)
}

// RecordKeyPattern returns the SCAN pattern matching every record in a namespace.
func RecordKeyPattern(namespace string) string {
	return fmt.Sprintf("flowlog:%s:record:*", namespace)
}

// FileKey returns the Redis key holding a record's uploaded file.
// Pattern: flowlog:{namespace}:file:{record_id}
func FileKey(namespace, recordID string) string {
	return fmt.Sprintf("flowlog:%s:file:%s", namespace, recordID)
}

// DerivedKey returns the Redis set of records derived from recordID.
// Pattern: flowlog:{namespace}:derived:{record_id}
func DerivedKey(namespace, recordID string) string {
	return fmt.Sprintf("flowlog:%s:derived:%s", namespace, recordID)
}

// CollectionKey returns the ZSET of record ids in a collection, scored by creation time.
// Pattern: flowlog:{namespace}:collection:{collection}
func CollectionKey(namespace, collection string) string {
	return fmt.Sprintf("flowlog:%s:collection:%s", namespace, collection)
}

// TitleIndexKey returns the hash mapping titles to the latest record id in a collection.
// Pattern: flowlog:{namespace}:collection:{collection}:titles
func TitleIndexKey(namespace, collection string) string {
	return fmt.Sprintf("flowlog:%s:collection:%s:titles", namespace, collection)
}

// TitleKey returns the ZSET of every record ever stored under a title in a
// collection, scored by creation time.
// Pattern: flowlog:{namespace}:collection:{collection}:title:{title}
func TitleKey(namespace, collection, title string) string {
	return fmt.Sprintf("flowlog:%s:collection:%s:title:%s", namespace, collection, title)
}

// RecordEventsChannel returns the Pub/Sub channel for record events.
// Pattern: flowlog:{namespace}:record_events
func RecordEventsChannel(namespace string) string {
	return fmt.Sprintf("flowlog:%s:record_events", namespace)
}
