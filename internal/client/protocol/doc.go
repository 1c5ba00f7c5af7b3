// Package protocol renders intents into the AnyLog/EdgeLake command grammar.
//
// Everything here is a pure string transform: no function in this package
// talks to the node. Multi-step flows that need follow-up reads (policy
// publication, topic re-registration, policy document bootstrap) are driven
// by internal/client/services using the commands built here.
//
// Key pieces:
//
//   - Command           a single request: method, text, optional peer, topic, payload
//   - PolicyPath/Encode nested-document "set" syntax: [seg1][seg2] = <literal>
//   - Builder funcs     create policy, blockchain insert, msg client, data nodes, columns
//   - InferSchema       first-seen primitive type per field over a batch of records
package protocol
