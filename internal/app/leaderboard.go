package app

import (
	"sort"

	"live-quiz-service/internal/domain"
)

// Rank orders a score table by points, highest first. Equal scores are ordered
// by player ID so repeated calls on the same table agree.
func Rank(quiz domain.Quiz, scores map[string]int) domain.Leaderboard {
	list := make([]domain.Standing, 0, len(scores))
	for playerID, points := range scores {
		list = append(list, domain.Standing{
			PlayerID: playerID,
			QuizID:   quiz.ID,
			Points:   points,
		})
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Points != list[j].Points {
			return list[i].Points > list[j].Points
		}
		return list[i].PlayerID < list[j].PlayerID
	})

	return domain.Leaderboard{Quiz: quiz, List: list}
}
