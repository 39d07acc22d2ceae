package wizard

const (
	textAskPost         = "Send the text of the post you want to schedule:"
	textDenySchedule    = "Sorry, you are not allowed to schedule posts."
	textDenyList        = "Sorry, you are not allowed to view scheduled posts."
	textAskDate         = "Choose the day to publish the post:"
	textAskTime         = "Choose the time to publish the post:"
	textAskManual       = "Enter the time as HH:MM (for example, 15:45):"
	textBadManual       = "Invalid time format. Enter the time as HH:MM (for example, 15:45)."
	textScheduled       = "Post #%d scheduled for %s."
	textPastTime        = "The selected time has already passed. Start again with /schedule."
	textScheduleFailed  = "Could not schedule the post. Start again with /schedule."
	textNoPosts         = "No scheduled posts."
	textListHeader      = "Scheduled posts:"
	textListItem        = "ID: %d\nDate: %s\nText: %s"
	textCancelled       = "Scheduled post with ID %d cancelled."
	textCancelNotFound  = "Post with ID %d was not found."
	textWhoAmI          = "Your user ID: %d\nChat ID: %d"
	textAborted         = "Scheduling aborted."
	textNothingToAbort  = "There is nothing to abort."
	textRevoked         = "You are no longer allowed to schedule posts."
	textDeliveredNotice = "Post #%d was published."
	textFailedNotice    = "Post #%d could not be published: %s"

	labelToday    = "Today"
	labelTomorrow = "Tomorrow"
	labelDayAfter = "Day after tomorrow"
	labelManual   = "Enter manually"
	labelCancel   = "Cancel ID: %d"

	feedbackDate      = "Date selected"
	feedbackTime      = "Time selected"
	feedbackManual    = "Enter the time manually"
	feedbackCancelled = "Cancelled"
	feedbackNotFound  = "Not found"

	// TimeLayout renders fire times in confirmations and listings.
	TimeLayout = "2006-01-02 15:04 MST"

	previewRunes = 200
)

// HelpText lists the commands the bot understands.
const HelpText = `This bot publishes posts to the channel at a chosen time.

/schedule - compose and schedule a post
/list - show pending posts of this chat
/abort - abandon the post being composed
/myid - show your user and chat ids`
