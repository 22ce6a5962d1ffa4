package player

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ActionKind names one step of a viewing scenario.
type ActionKind string

const (
	ActionPlay  ActionKind = "play"  // play for Ms of playback
	ActionSeek  ActionKind = "seek"  // jump to position Ms
	ActionPause ActionKind = "pause" // stay paused for Ms
	ActionStop  ActionKind = "stop"  // end the viewing
)

var ErrInvalidScenario = errors.New("invalid scenario")

// Action is one scenario step. In YAML it is either a single-key mapping
// ("play: 5000") or the bare scalar "stop".
type Action struct {
	Kind ActionKind
	Ms   int64
}

// Scenario is a scripted viewing of one episode.
type Scenario struct {
	EpisodeID string   `yaml:"episode_id"`
	SeasonID  string   `yaml:"season_id"`
	StepMs    int64    `yaml:"step_ms"`
	Actions   []Action `yaml:"actions"`
}

const defaultStepMs = 250

func (a *Action) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if strings.ToLower(node.Value) != string(ActionStop) {
			return fmt.Errorf("%w: line %d: unknown action %q", ErrInvalidScenario, node.Line, node.Value)
		}
		*a = Action{Kind: ActionStop}
		return nil

	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("%w: line %d: an action has exactly one key", ErrInvalidScenario, node.Line)
		}
		kind := ActionKind(strings.ToLower(node.Content[0].Value))
		switch kind {
		case ActionStop:
			*a = Action{Kind: ActionStop}
			return nil
		case ActionPlay, ActionSeek, ActionPause:
		default:
			return fmt.Errorf("%w: line %d: unknown action %q", ErrInvalidScenario, node.Line, kind)
		}
		var ms int64
		if err := node.Content[1].Decode(&ms); err != nil {
			return fmt.Errorf("%w: line %d: %s needs milliseconds: %v", ErrInvalidScenario, node.Line, kind, err)
		}
		*a = Action{Kind: kind, Ms: ms}
		return nil
	}
	return fmt.Errorf("%w: line %d: unexpected action", ErrInvalidScenario, node.Line)
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		if errors.Is(err, ErrInvalidScenario) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if sc.StepMs == 0 {
		sc.StepMs = defaultStepMs
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func (sc *Scenario) Validate() error {
	if sc.StepMs <= 0 {
		return fmt.Errorf("%w: step_ms must be positive", ErrInvalidScenario)
	}
	if len(sc.Actions) == 0 {
		return fmt.Errorf("%w: no actions", ErrInvalidScenario)
	}
	for i, a := range sc.Actions {
		if a.Kind != ActionStop && a.Ms < 0 {
			return fmt.Errorf("%w: action %d (%s): negative milliseconds", ErrInvalidScenario, i, a.Kind)
		}
	}
	return nil
}

// DemoScenario plays the seeded demo episode with a rewind in the middle.
func DemoScenario() *Scenario {
	return &Scenario{
		EpisodeID: "demo-s01e01",
		SeasonID:  "demo-s01",
		StepMs:    defaultStepMs,
		Actions: []Action{
			{Kind: ActionPlay, Ms: 32_000},
			{Kind: ActionSeek, Ms: 14_000},
			{Kind: ActionPlay, Ms: 10_000},
			{Kind: ActionPause, Ms: 5_000},
			{Kind: ActionSeek, Ms: 55_000},
			{Kind: ActionPlay, Ms: 6_000},
			{Kind: ActionStop},
		},
	}
}
