package handlers

// Menu labels double as command aliases.
const (
	LabelRegister   = "Регистрация в телеграм боте"
	LabelRates      = "Курс валют"
	LabelTips       = "Советы по экономии"
	LabelFinances   = "Личные финансы"
	LabelMyExpenses = "Мои расходы"
)

const (
	skipButton = "Пропустить"
	skipUnique = "skip"

	welcomeText = "Привет! Я ваш личный финансовый помощник. 🏦\n\n" +
		"Я помогу вам:\n" +
		"• Отслеживать расходы по категориям\n" +
		"• Узнавать актуальные курсы валют\n" +
		"• Получать советы по экономии\n\n" +
		"Выберите одну из опций в меню:"
	cancelText        = "Операция отменена. ❌"
	unknownCommand    = "Неизвестная команда. Отправь /help, чтобы увидеть список."
	genericError      = "Произошла ошибка. Попробуйте позже."
	alreadyRegistered = "Вы уже зарегистрированы! ✅"
	registered        = "Вы успешно зарегистрированы! 🎉"
	noExpenses        = "У вас пока нет сохраненных расходов. Добавьте их через 'Личные финансы'"
	noStudents        = "Пока никто не зарегистрирован."
	adminOnly         = "Команда доступна только администраторам."

	ratesFailed   = "❌ Не удалось получить курс валют. Попробуйте позже."
	ratesTimeout  = "⏰ Превышено время ожидания ответа от сервера."
	weatherFailed = "Не удалось получить погоду."

	voiceUsage    = "Использование: /voice <текст>"
	voiceTooLong  = "⚠️ Текст слишком длинный (до 500 символов)"
	voiceFailed   = "⚠️ Не удалось озвучить текст."
	voiceCaption  = "🔊 Ваше голосовое сообщение"
	translateFail = "⚠️ Не удалось перевести текст."
	photoFailed   = "⚠️ Не удалось сохранить фото."
	photoCaption  = "Это супер крутая картинка"
)

var tips = []string{
	"💰 Совет 1: Ведите бюджет и следите за расходами каждый день",
	"💳 Совет 2: Откладывайте 10-20% от каждого дохода на сбережения",
	"🛒 Совет 3: Пользуйтесь скидками, акциями и кэшбэком",
	"🏠 Совет 4: Оптимизируйте коммунальные расходы",
	"🚗 Совет 5: Используйте общественный транспорт вместо такси",
	"🍽️ Совет 6: Готовьте еду дома вместо ресторанов",
	"📱 Совет 7: Отключите ненужные подписки",
	"🎯 Совет 8: Ставьте финансовые цели и следуйте им",
}

var photoURLs = []string{
	"https://upload.wikimedia.org/wikipedia/commons/5/5e/Tesla-optimus-bot-gen-2-scaled_%28cropped%29.jpg",
	"https://i.pinimg.com/originals/87/84/15/878415254c567bde84994c1e73dc52a2.png",
	"https://s0.rbk.ru/v6_top_pics/resized/960xH/media/img/6/97/756430096603976.jpg",
}

func mainMenu() [][]string {
	return [][]string{
		{LabelRegister, LabelRates},
		{LabelTips, LabelFinances},
		{LabelMyExpenses},
	}
}
