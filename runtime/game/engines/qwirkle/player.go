package qwirkle

// TurnSource 回合的来源。交互来源等待玩家指令，自动来源在回合发放后直接填写
type TurnSource interface {
	// Fill 填写回合，返回 true 表示回合已可提交
	Fill(turn *Turn) bool
}

// Interactive 远程玩家，通过推送的回合提示出牌
type Interactive struct{}

func (Interactive) Fill(*Turn) bool {
	return false
}

// Autopilot 托管：放下手中第一张能放的牌，没有则整手换牌。
// 牌袋不足以换牌时由引擎改为跳过
type Autopilot struct{}

func (Autopilot) Fill(turn *Turn) bool {
	hand := turn.Hand()
	for _, tile := range hand {
		for _, c := range turn.PossiblePlacements(tile) {
			if turn.AddMove(Move{Tile: tile, X: c.X, Y: c.Y}) == nil {
				return true
			}
		}
	}
	if turn.Initial() {
		return false
	}
	for _, tile := range hand {
		if turn.AddSwapRequest(tile) != nil {
			return false
		}
	}
	return true
}

// Player 玩家在一局中的状态
type Player struct {
	ID     string
	Hand   *Hand
	Score  int
	Source TurnSource
}

func NewPlayer(id string, handSize int, source TurnSource) *Player {
	if source == nil {
		source = Interactive{}
	}
	return &Player{
		ID:     id,
		Hand:   NewHand(handSize),
		Source: source,
	}
}

// Standing 最终排名中的一项
type Standing struct {
	PlayerID     string `json:"playerId"`
	Score        int    `json:"score"`
	Disqualified bool   `json:"disqualified"`
}
