// Package messages holds the user-facing text of the bot.
//
// Announcement sequences are ordered so that index 0 carries the winner
// prefix; the remaining lines are suspense messages sent first, with a
// configured delay between them.
package messages

// Registration replies.
const (
	RegistrationAlready = "Ты уже в игре"
	RegistrationDone    = "%s, Ты в игре"
	RegistrationFailed  = "Ошибка регистрации"
)

// Shared replies.
const (
	NoPlayers     = "Никто ещё не зарегистрировался. Жми /reg"
	GroupOnly     = "Эта команда работает только в группах"
	RunFailed     = "Что-то пошло не так, попробуй ещё раз"
	UnknownWinner = "Неизвестно"
)

// UserOfDay is the announcement sequence for the "User of the Day" game.
var UserOfDay = []string{
	"Красавчик дня - ",
	"Объявляю охоту на красавчика дня!",
	"Сканирую чат...",
	"Применяю алгоритм машинного обучения...",
	"Почти готово...",
}

// PidorOfDay is the announcement sequence for the "Pidor of the Day" game.
var PidorOfDay = []string{
	"Пидор дня - ",
	"Инициализирую поиск пидора дня...",
	"Опрашиваю свидетелей...",
	"Анализирую улики...",
	"Вычисляю по IP...",
}

// Statistics headers and row format.
const (
	StatUserHeader  = "Статистика Красавчика дня:\n"
	StatPidorHeader = "Статистика Пидора дня:\n"
	StatRow         = "%d) %s - %d раз(а)\n"
)
