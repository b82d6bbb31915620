package room

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/quackextractor/wordrush/internal/dependencies/clock"
	"github.com/quackextractor/wordrush/internal/dependencies/random"
	"github.com/quackextractor/wordrush/internal/model"
	"github.com/quackextractor/wordrush/internal/services/words"
)

// PowerupChance is the probability of a powerup grant once the submitted
// word contains the independently drawn hard piece
const PowerupChance = 0.2

// Engine applies game rules to a room. It is purely synchronous and never
// locks; the owning actor guarantees one operation at a time.
type Engine struct {
	source *words.Source
	judge  *words.Judge
	clock  clock.Clock
	random random.Random
	logger *slog.Logger
}

// NewEngine creates an Engine with the given collaborators
func NewEngine(source *words.Source, judge *words.Judge, clock clock.Clock, random random.Random, logger *slog.Logger) *Engine {
	return &Engine{
		source: source,
		judge:  judge,
		clock:  clock,
		random: random,
		logger: logger,
	}
}

// Join appends a player to a waiting room. The first player to join becomes
// the host.
func (e *Engine) Join(r *model.Room, p model.Player) error {
	if r.Status != model.StatusWaiting {
		return model.ErrAlreadyStarted
	}
	if len(r.Players) >= model.MaxPlayers {
		return model.ErrRoomFull
	}

	p.Score = 0
	p.Lives = model.StartingLives
	p.Powerups = []model.PowerupType{}
	p.IsHost = len(r.Players) == 0
	r.Players = append(r.Players, p)
	return nil
}

// LeaveOutcome describes the side effects of a departure
type LeaveOutcome struct {
	Left      bool
	WasHost   bool
	RoomEmpty bool
	GameOver  bool
}

// Leave removes the player at any status. Host status transfers to the new
// first player; in classic mode the turn index is adjusted so it keeps
// referring to whoever should play next.
func (e *Engine) Leave(r *model.Room, id model.PlayerID) LeaveOutcome {
	p, idx := r.FindPlayer(id)
	if p == nil {
		return LeaveOutcome{}
	}

	out := LeaveOutcome{Left: true, WasHost: p.IsHost}
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)

	if len(r.Players) == 0 {
		out.RoomEmpty = true
		return out
	}

	if out.WasHost {
		r.Players[0].IsHost = true
	}

	if r.Status == model.StatusPlaying {
		if r.Mode == model.ModeClassic && idx <= r.CurrentPlayerIndex {
			r.CurrentPlayerIndex = max(0, r.CurrentPlayerIndex-1)
		}
		if len(r.Players) == 1 {
			r.Status = model.StatusGameOver
			out.GameOver = true
		}
	}

	return out
}

// Start transitions a waiting room to playing. Host only, two players minimum.
func (e *Engine) Start(r *model.Room, caller model.PlayerID) error {
	if r.Status != model.StatusWaiting {
		return model.ErrAlreadyStarted
	}

	host := r.Host()
	if host == nil || host.ID != caller {
		return model.ErrNotHost
	}
	if len(r.Players) < 2 {
		return model.ErrNotEnoughPlayers
	}

	r.Status = model.StatusPlaying
	r.Round = 1
	r.Level = 1

	switch r.Mode {
	case model.ModeClassic:
		r.WordPiece = e.source.Next(words.Normal)
		r.TimeLeft = model.ClassicTurnSeconds
		r.CurrentPlayerIndex = 0
	case model.ModeWordmaster:
		budget := model.WordmasterBudget(r.Level)
		r.TimeLeft = budget
		for i := range r.Players {
			r.Players[i].WordPiece = e.source.Next(words.Normal)
			r.Players[i].TimeLeft = budget
			r.Players[i].RoundScore = 0
		}
	}

	r.StartTime = e.clock.Now()

	e.logger.Info("game started",
		slog.String("room_id", string(r.ID)),
		slog.String("mode", string(r.Mode)),
		slog.Int("player_count", len(r.Players)),
	)
	return nil
}

// SubmitWord judges one submission. Judge failures come back as a non-OK
// verdict with a nil error and mutate nothing; validation failures come back
// as errors. A passing verdict scores the word and advances the game.
func (e *Engine) SubmitWord(r *model.Room, id model.PlayerID, word string) (words.Verdict, error) {
	if r.Status != model.StatusPlaying {
		return words.Verdict{}, model.ErrNotPlaying
	}

	p, idx := r.FindPlayer(id)
	if p == nil {
		return words.Verdict{}, model.ErrNotInGame
	}
	if r.Mode == model.ModeClassic && idx != r.CurrentPlayerIndex {
		return words.Verdict{}, model.ErrNotYourTurn
	}

	normalized := words.Normalize(word)
	if _, used := r.UsedWords[normalized]; used {
		return words.Verdict{}, model.ErrAlreadyUsed
	}

	piece := r.WordPiece
	if r.Mode == model.ModeWordmaster {
		piece = p.WordPiece
	}

	verdict := e.judge.Validate(word, piece)
	if !verdict.OK() {
		return verdict, nil
	}

	p.Score += len(normalized)
	r.UsedWords[normalized] = struct{}{}
	p.ExtraWordRequired = false

	if r.Mode == model.ModeWordmaster {
		p.RoundScore++
		p.WordPiece = e.source.Next(words.Normal)
	}

	e.maybeGrantPowerup(p, normalized)

	if r.Mode == model.ModeClassic {
		r.CurrentPlayerIndex = (idx + 1) % len(r.Players)
		r.WordPiece = e.source.Next(words.Normal)
		r.TimeLeft = model.ClassicTurnSeconds
		r.StartTime = e.clock.Now()
	}

	return verdict, nil
}

// maybeGrantPowerup rolls for a bonus powerup. The check draws a fresh hard
// piece independent of the piece the word was judged against; only words
// that happen to contain that draw are eligible, and then only 20% of the
// time. The grant itself is a uniform pick over the three powerup types.
func (e *Engine) maybeGrantPowerup(p *model.Player, normalized string) {
	hard := e.source.Next(words.Hard)
	if !strings.Contains(normalized, hard) {
		return
	}
	if e.random.Float64() >= PowerupChance {
		return
	}
	granted := model.AllPowerupTypes[e.random.Intn(len(model.AllPowerupTypes))]
	p.Powerups = append(p.Powerups, granted)
}

// UsePowerup consumes one instance of pt from the player's inventory and
// applies its effect. Unknown or absent targets consume the powerup with no
// effect; that mirrors how targets have always behaved.
func (e *Engine) UsePowerup(r *model.Room, id model.PlayerID, pt model.PowerupType, target model.PlayerID) (model.PowerupUsedPayload, error) {
	if r.Status != model.StatusPlaying {
		return model.PowerupUsedPayload{}, model.ErrNotPlaying
	}

	p, _ := r.FindPlayer(id)
	if p == nil {
		return model.PowerupUsedPayload{}, model.ErrNotInGame
	}
	if !p.RemovePowerup(pt) {
		return model.PowerupUsedPayload{}, model.ErrNotOwned
	}

	payload := model.PowerupUsedPayload{
		PlayerID:    id,
		PlayerName:  p.Name,
		PowerupType: pt,
		TargetID:    target,
	}

	switch pt {
	case model.PowerupReverse:
		// Classic only; a no-op in wordmaster where there is no turn order
		if r.Mode == model.ModeClassic {
			reversePlayers(r.Players)
			r.CurrentPlayerIndex = len(r.Players) - 1 - r.CurrentPlayerIndex
		}
	case model.PowerupTrap:
		if t, _ := r.FindPlayer(target); t != nil {
			payload.TargetName = t.Name
			if r.Mode == model.ModeWordmaster {
				t.WordPiece = e.source.Next(words.Hard)
			} else {
				r.WordPiece = e.source.Next(words.Hard)
			}
		}
	case model.PowerupExtraWord:
		if t, _ := r.FindPlayer(target); t != nil {
			payload.TargetName = t.Name
			t.ExtraWordRequired = true
		}
	}

	return payload, nil
}

// TickOutcome describes what a timer tick did and what must be broadcast
type TickOutcome struct {
	Changed    bool
	Eliminated []model.PlayerEliminatedPayload
	NewRound   *model.NewRoundPayload
	GameOver   bool
	RoomEmpty  bool
}

// Tick advances time for the room. Time left is always recomputed from the
// anchor rather than decremented so catch-up after scheduling jitter stays
// consistent. Ticks against a non-playing room do nothing.
func (e *Engine) Tick(r *model.Room) TickOutcome {
	if r.Status != model.StatusPlaying {
		return TickOutcome{}
	}

	elapsed := int(e.clock.Now().Sub(r.StartTime).Seconds())

	switch r.Mode {
	case model.ModeClassic:
		return e.tickClassic(r, elapsed)
	case model.ModeWordmaster:
		return e.tickWordmaster(r, elapsed)
	}
	return TickOutcome{}
}

func (e *Engine) tickClassic(r *model.Room, elapsed int) TickOutcome {
	out := TickOutcome{Changed: true}
	r.TimeLeft = max(0, model.ClassicTurnSeconds-elapsed)
	if r.TimeLeft > 0 {
		return out
	}

	current := &r.Players[r.CurrentPlayerIndex]
	current.Lives--

	if current.Lives <= 0 {
		out.Eliminated = append(out.Eliminated, model.PlayerEliminatedPayload{
			PlayerName: current.Name,
			Score:      current.Score,
		})
		r.Players = append(r.Players[:r.CurrentPlayerIndex], r.Players[r.CurrentPlayerIndex+1:]...)

		if len(r.Players) == 0 {
			r.Status = model.StatusGameOver
			out.GameOver = true
			out.RoomEmpty = true
			return out
		}
		// The next player has shifted into the vacated slot
		r.CurrentPlayerIndex = r.CurrentPlayerIndex % len(r.Players)
	} else {
		r.CurrentPlayerIndex = (r.CurrentPlayerIndex + 1) % len(r.Players)
	}

	r.WordPiece = e.source.Next(words.Normal)
	r.TimeLeft = model.ClassicTurnSeconds
	r.StartTime = e.clock.Now()
	return out
}

func (e *Engine) tickWordmaster(r *model.Room, elapsed int) TickOutcome {
	out := TickOutcome{Changed: true}
	budget := model.WordmasterBudget(r.Level)
	timeLeft := max(0, budget-elapsed)

	for i := range r.Players {
		r.Players[i].TimeLeft = timeLeft
	}
	if timeLeft > 0 {
		return out
	}

	// Round over: lowest round score goes home. Stable sort keeps prior
	// relative order among equal scorers.
	sort.SliceStable(r.Players, func(i, j int) bool {
		return r.Players[i].RoundScore > r.Players[j].RoundScore
	})

	if len(r.Players) > 1 {
		loser := r.Players[len(r.Players)-1]
		r.Players = r.Players[:len(r.Players)-1]
		out.Eliminated = append(out.Eliminated, model.PlayerEliminatedPayload{
			PlayerName: loser.Name,
			Score:      loser.Score,
		})
		if loser.IsHost && len(r.Players) > 0 {
			r.Players[0].IsHost = true
		}
	}

	if len(r.Players) == 1 {
		r.Status = model.StatusGameOver
		out.GameOver = true
		return out
	}

	r.Round++
	r.Level = model.LevelForRound(r.Round)
	nextBudget := model.WordmasterBudget(r.Level)
	r.TimeLeft = nextBudget

	for i := range r.Players {
		r.Players[i].WordPiece = e.source.Next(words.Normal)
		r.Players[i].TimeLeft = nextBudget
		r.Players[i].RoundScore = 0
	}

	r.UsedWords = make(map[string]struct{})
	r.StartTime = e.clock.Now()

	out.NewRound = &model.NewRoundPayload{
		Round:        r.Round,
		Level:        r.Level,
		TimeForRound: nextBudget,
	}
	return out
}

func reversePlayers(players []model.Player) {
	for i, j := 0, len(players)-1; i < j; i, j = i+1, j-1 {
		players[i], players[j] = players[j], players[i]
	}
}
