// Package types holds the websocket wire protocol.
//
// Every frame is {"type", "ref", "data"}. A non-zero ref asks for an ack
// carrying the same ref.
//
// Client -> Server
//
//	join:              roomId, name          ack: ok, roomId, seed | ok=false, reason
//	start_game:        roomId                ack: ok | reason (not_host, illegal_state)
//	input:             roomId                ack: ok | reason
//	sync_state:        roomId, state         ack: ok | reason (invalid_state, ...)
//	send_penalty:      roomId, lines         ack: ok
//	end_game:          roomId                ack: ok
//	restart_game:      roomId                ack: ok | reason
//	save_score:        roomId, name, score, lines
//	get_leaderboard:   limit?                ack: scores
//	get_player_scores: name, limit?          ack: scores
//
// Server -> Client
//
//	player_joined:      id, name
//	player_left:        id
//	host_assigned:      id, name
//	room_update:        players[{id, name, score, lines, gameOver, role}]
//	game_started:       seed
//	game_ended:         seed
//	game_restarted:     seed
//	opponent_state:     from, state{board?, score?, lines?, gameOver?}
//	receive_penalty:    from, lines
//	leaderboard_update: scores[{name, score, lines, roomId, date}]
//	error:              reason (bad_request, unknown_event)
package types
