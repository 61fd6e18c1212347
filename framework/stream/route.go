package stream

// 服务间路由，connector -> game
const (
	GameCreate  = "game.create"
	GameInitial = "game.initial"
	GamePlace   = "game.place"
	GameSwap    = "game.swap"
	GameLeave   = "game.leave"
)

// GamePush game -> connector 的服务间路由
const GamePush = "game.push"

// 客户端路由
const (
	QwirkleHand         = "qwirkle.hand"
	QwirkleBoard        = "qwirkle.board"
	QwirkleTurn         = "qwirkle.turn"
	QwirkleScore        = "qwirkle.score"
	QwirkleDisqualified = "qwirkle.disqualified"
	QwirkleEnd          = "qwirkle.end"
	QwirkleError        = "qwirkle.error"
)
