// Package redisstore persists accounts and session documents in Redis.
//
// # Key layout
//
//	<prefix>:user:<id>       JSON account record
//	<prefix>:email:<email>   account id (SETNX enforces unique emails)
//	<prefix>:doc:<id>        JSON session document
//	<prefix>:docs            list of every session id, insertion order
//	<prefix>:owner:<userID>  list of one owner's session ids, insertion order
//
// Updates run under WATCH on the document key and retry on conflict, so two
// concurrent writers resolve as last-write-wins without partial documents.
package redisstore
